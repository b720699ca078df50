package engine

// Prompt templates for the conversation flow. All user-facing text is
// Chinese to match the product surface.

const intentPrompt = `你是教育客服系统的意图分类器。请将用户问题归入以下类别之一：
course（课程咨询）、presale（售前咨询）、postsale（售后咨询）、order（订单查询）、human（要求人工客服）、direct（其他闲聊或通用问题）。
只输出类别单词本身，不要输出任何其他内容。

用户问题：%s`

const ragPrompt = `你是教育机构的客服助手。请仅根据以下资料回答用户问题，回答要简洁、准确。
如果资料不足以回答，请直接说明无法回答。

资料：
%s

用户问题：%s`

const directPrompt = `你是教育机构的客服助手。请用简洁、友好的中文回答用户的问题。

用户问题：%s`

const orderSQLPrompt = `你是订单查询助手。orders 表包含以下列：order_id, status, amount, updated_at, start_time。
请根据用户问题生成一条参数化 SQL 查询，占位符使用 %%s。
只输出 JSON，格式为 {"sql": "...", "params": ["..."]}，不要输出任何其他内容。

用户问题：%s`

const orderNLGPrompt = `请将以下订单信息改写为一句自然、友好的中文客服回复，不要遗漏任何字段，不要编造信息。

订单信息：%s`

const historyPrefix = "最近对话摘要：\n"
