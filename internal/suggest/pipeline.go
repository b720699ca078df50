// Package suggest generates follow-up question suggestions asynchronously
// and fans them out to per-thread streams.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edudesk-ai/support-engine/internal/llm"
	"github.com/edudesk-ai/support-engine/internal/model"
	"github.com/edudesk-ai/support-engine/pkg/logger"
	"github.com/edudesk-ai/support-engine/pkg/metrics"
)

const (
	taskQueueSize = 64
	streamBuffer  = 8

	minSuggestions = 3
	maxSuggestions = 5

	// Streams that delivered their final event are removed after this
	// grace period; abandoned streams after the idle limit.
	evictAfterFinal = 30 * time.Second
	evictAfterIdle  = 5 * time.Minute
	janitorInterval = 15 * time.Second
)

const suggestPrompt = `你是教育客服助手。根据刚刚的对话，生成 3 个用户接下来可能想问的问题。
每行一个问题，不要编号，不要输出其他内容。

用户问题：%s
客服回答：%s`

var defaultQuestions = []string{
	"有哪些课程可以选择？",
	"如何查询我的订单？",
	"怎么联系人工客服？",
	"课程什么时候开课？",
	"支持退款吗？",
}

type task struct {
	threadID string
	route    string
	query    string
	answer   string
}

type stream struct {
	ch      chan model.SuggestionEvent
	touched time.Time
	final   bool
}

// Pipeline runs suggestion generation on a fixed worker pool. Scheduling
// never blocks the chat path: when the queue is full the task is dropped
// and counted.
type Pipeline struct {
	registry   *llm.Registry
	genTimeout time.Duration
	log        *logger.Logger

	tasks chan task

	mu      sync.Mutex
	streams map[string]*stream

	done chan struct{}
	wg   sync.WaitGroup
}

func NewPipeline(registry *llm.Registry, workers int, genTimeout time.Duration, log *logger.Logger) *Pipeline {
	if workers <= 0 {
		workers = 2
	}
	if genTimeout <= 0 {
		genTimeout = 10 * time.Second
	}
	p := &Pipeline{
		registry:   registry,
		genTimeout: genTimeout,
		log:        log,
		tasks:      make(chan task, taskQueueSize),
		streams:    make(map[string]*stream),
		done:       make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.wg.Add(1)
	go p.janitor()
	return p
}

// Schedule queues suggestion generation for a completed turn. Returns
// false if the queue was full and the task dropped.
func (p *Pipeline) Schedule(threadID, route, query, answer string) bool {
	select {
	case p.tasks <- task{threadID: threadID, route: route, query: query, answer: answer}:
		return true
	default:
		metrics.SuggestTasksDropped.Inc()
		p.log.Warn("suggestion task dropped", zap.String("thread_id", threadID))
		return false
	}
}

// Stream returns the event channel for a thread, creating it if needed.
func (p *Pipeline) Stream(threadID string) <-chan model.SuggestionEvent {
	return p.streamFor(threadID).ch
}

func (p *Pipeline) streamFor(threadID string) *stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[threadID]
	if !ok {
		s = &stream{ch: make(chan model.SuggestionEvent, streamBuffer), touched: time.Now()}
		p.streams[threadID] = s
	}
	return s
}

// Close stops the workers and janitor. Queued tasks are abandoned.
func (p *Pipeline) Close() {
	close(p.done)
	p.wg.Wait()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			p.run(t)
		}
	}
}

func (p *Pipeline) run(t task) {
	select {
	case <-p.done:
		return
	default:
	}

	p.emit(t.threadID, model.SuggestionEvent{
		Route: t.route,
		Event: model.SuggestEventStart,
	})

	ctx, cancel := context.WithTimeout(context.Background(), p.genTimeout)
	defer cancel()

	suggestions, err := p.generate(ctx, t.query, t.answer)
	if err != nil {
		p.log.Warn("suggestion generation failed",
			zap.String("thread_id", t.threadID),
			zap.Error(err))
		p.emit(t.threadID, model.SuggestionEvent{
			Route: t.route,
			Event: model.SuggestEventError,
			Final: true,
			Error: &model.SuggestionError{Code: "react_error", Message: "建议生成异常"},
		})
		return
	}

	p.emit(t.threadID, model.SuggestionEvent{
		Route:       t.route,
		Suggestions: suggestions,
		Event:       model.SuggestEventReact,
		Final:       true,
	})
}

func (p *Pipeline) generate(ctx context.Context, query, answer string) ([]string, error) {
	client, modelName := p.registry.Current()
	if client == nil {
		return nil, fmt.Errorf("no active model")
	}
	start := time.Now()
	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Model:    modelName,
		Messages: []llm.ChatMessage{{Role: "user", Content: fmt.Sprintf(suggestPrompt, query, answer)}},
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMCall(modelName, status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return padSuggestions(cleanSuggestions(resp.Content)), nil
}

// cleanSuggestions splits model output into lines, stripping list markers
// and blanks.
func cleanSuggestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = trimListMarker(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func trimListMarker(line string) string {
	for _, marker := range []string{"1.", "2.", "3.", "4.", "5.", "-", "*"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return line
}

// padSuggestions tops the list up from the defaults so callers always see
// at least three distinct suggestions.
func padSuggestions(list []string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, d := range defaultQuestions {
		if len(list) >= minSuggestions {
			break
		}
		if !seen[d] {
			list = append(list, d)
			seen[d] = true
		}
	}
	if len(list) > maxSuggestions {
		list = list[:maxSuggestions]
	}
	return list
}

// emit pushes an event to the thread stream without blocking; a full
// buffer drops the oldest event first. The send happens under the lock
// so the janitor cannot evict the stream mid-publish.
func (p *Pipeline) emit(threadID string, ev model.SuggestionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[threadID]
	if !ok {
		s = &stream{ch: make(chan model.SuggestionEvent, streamBuffer), touched: time.Now()}
		p.streams[threadID] = s
	}
	s.touched = time.Now()
	if ev.Final {
		s.final = true
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (p *Pipeline) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.evict()
		}
	}
}

func (p *Pipeline) evict() {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, s := range p.streams {
		idle := now.Sub(s.touched)
		if (s.final && idle > evictAfterFinal) || idle > evictAfterIdle {
			delete(p.streams, id)
		}
	}
}
