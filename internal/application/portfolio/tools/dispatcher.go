package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"knearme-portfolio-api/internal/application/portfolio/ctxbudget"
	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
	"knearme-portfolio-api/pkg/logger"
	"knearme-portfolio-api/pkg/metrics"
)

// Dispatcher 工具调度器。无跨请求状态：每个调用都按需从存储
// 重建项目状态，顺序处理只是安全余量而非正确性要求。
type Dispatcher struct {
	projects  repository.ProjectRepository
	pages     repository.PortfolioPageRepository
	sessions  repository.ConversationSessionRepository
	planner   *ctxbudget.Planner
	delegator *delegate.Delegator
	extractor *delegate.FallbackExtractor
	composer  *delegate.FallbackComposer
	validate  *validator.Validate
}

func NewDispatcher(
	projects repository.ProjectRepository,
	pages repository.PortfolioPageRepository,
	sessions repository.ConversationSessionRepository,
	planner *ctxbudget.Planner,
	delegator *delegate.Delegator,
) *Dispatcher {
	return &Dispatcher{
		projects:  projects,
		pages:     pages,
		sessions:  sessions,
		planner:   planner,
		delegator: delegator,
		extractor: delegate.NewFallbackExtractor(),
		composer:  delegate.NewFallbackComposer(),
		validate:  validator.New(),
	}
}

// Dispatch 按到达顺序处理整批调用，输出与输入一一对应。
// 任何调用的失败都被折叠为它自己的错误结果，批次永不中断。
func (d *Dispatcher) Dispatch(ctx context.Context, scope *Scope, calls []Call) *BatchResult {
	start := time.Now()

	results := make([]CallResult, len(calls))
	for i, call := range calls {
		results[i] = d.dispatchOne(ctx, scope, call)
	}

	return &BatchResult{
		Results:    results,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, scope *Scope, call Call) (result CallResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "tool handler panicked", fmt.Errorf("panic: %v", r),
				"tool", string(call.Name),
			)
			result = errResult(call, &CallError{
				Code:      apperrors.CodeInternalError,
				Message:   "internal error while handling tool call",
				Retryable: true,
			})
		}
		status := "ok"
		if result.Error != nil {
			status = "error"
		}
		metrics.ToolCallsTotal.WithLabelValues(string(call.Name), status).Inc()
		metrics.ToolCallDuration.WithLabelValues(string(call.Name)).Observe(time.Since(start).Seconds())
	}()

	switch call.Name {
	case NameUpdateProjectField:
		args, cerr := decodeArgs[UpdateProjectFieldArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleUpdateProjectField(ctx, scope, call, args)

	case NameAnalyzeConversation:
		args, cerr := decodeArgs[AnalyzeConversationArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleAnalyzeConversation(ctx, scope, call, args)

	case NameComposeLayout:
		args, cerr := decodeArgs[ComposeLayoutArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleComposeLayout(ctx, scope, call, args)

	case NameCheckPublishReadiness:
		args, cerr := decodeArgs[CheckPublishReadinessArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleCheckPublishReadiness(ctx, scope, call, args)

	case NameGeneratePortfolio:
		args, cerr := decodeArgs[GeneratePortfolioArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleGeneratePortfolio(ctx, scope, call, args)

	case NameShowImagePicker:
		// 纯回显：副作用在调用方 UI，这里只校验并原样返回
		args, cerr := decodeArgs[ShowImagePickerArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return okResult(call, args)

	case NameShowPublishPreview:
		args, cerr := decodeArgs[ShowPublishPreviewArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return okResult(call, args)

	case NameRequestClarification:
		args, cerr := decodeArgs[RequestClarificationArgs](d, call)
		if cerr != nil {
			return errResult(call, cerr)
		}
		return d.handleRequestClarification(ctx, scope, call, args)

	default:
		return errResult(call, &CallError{
			Code:    apperrors.CodeUnknownTool,
			Message: fmt.Sprintf("unknown tool: %s", call.Name),
		})
	}
}

// decodeArgs 解码并校验工具参数；参数缺省等价于空对象
func decodeArgs[T any](d *Dispatcher, call Call) (*T, *CallError) {
	var args T
	if len(call.Args) > 0 {
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return nil, &CallError{
				Code:    apperrors.CodeValidationFailed,
				Message: "malformed tool arguments",
				Details: err.Error(),
			}
		}
	}
	if err := d.validate.Struct(&args); err != nil {
		details := make([]string, 0)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
			}
		}
		return nil, &CallError{
			Code:    apperrors.CodeValidationFailed,
			Message: "invalid tool arguments",
			Details: details,
		}
	}
	return &args, nil
}

func okResult(call Call, output any) CallResult {
	return CallResult{ID: call.ID, Name: call.Name, Output: output}
}

func errResult(call Call, cerr *CallError) CallResult {
	return CallResult{ID: call.ID, Name: call.Name, Error: cerr}
}
