package orders

import (
	"fmt"
	"strings"

	"github.com/edudesk-ai/support-engine/internal/model"
)

// NotFoundMessage is returned when no order row matches the query.
const NotFoundMessage = "未查到，请输入\"人工客服\"进行查询"

// FormatSummary renders a deterministic Chinese order summary. It is the
// fallback when the model-written summary is unavailable, and the input
// for the model rewrite when it is.
func FormatSummary(rec *model.OrderRecord) string {
	if rec == nil {
		return NotFoundMessage
	}
	var b strings.Builder
	fmt.Fprintf(&b, "订单 %s 当前状态：%s", rec.OrderID, orDefault(rec.Status, "未知"))
	if rec.Amount != nil {
		fmt.Fprintf(&b, "，金额：%.2f 元", *rec.Amount)
	}
	if rec.UpdatedAt != "" {
		fmt.Fprintf(&b, "，更新时间：%s", rec.UpdatedAt)
	}
	if rec.StartTime != "" {
		fmt.Fprintf(&b, "，开课时间：%s，开课前可提前预习课程资料", rec.StartTime)
	}
	b.WriteString("。")
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
