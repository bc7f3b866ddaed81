// OpenAI channel implementation using the official openai-go Responses API.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Responses API
// - Rate-limit detection and suggested-delay extraction

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/screenpilot/screenpilot/model"
)

// OpenAIChannel implements Channel against the OpenAI Responses API.
type OpenAIChannel struct {
	client openai.Client
}

// NewOpenAIChannel creates a channel authenticated with the given API key.
func NewOpenAIChannel(apiKey string) *OpenAIChannel {
	return &OpenAIChannel{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

// NewOpenAIChannelWithBaseURL creates a channel against a non-default
// endpoint, e.g. an Azure OpenAI deployment.
func NewOpenAIChannelWithBaseURL(apiKey, baseURL string) *OpenAIChannel {
	return &OpenAIChannel{client: openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)}
}

// NewOpenAIChannelWithOptions creates a channel with custom client options.
func NewOpenAIChannelWithOptions(opts ...option.RequestOption) *OpenAIChannel {
	return &OpenAIChannel{client: openai.NewClient(opts...)}
}

// CreateResponse sends one request and converts the result to the
// vendor-neutral model types.
func (c *OpenAIChannel) CreateResponse(ctx context.Context, req Request) (*model.Response, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInput(req.Input),
		},
	}

	if req.PreviousResponseID != "" {
		params.PreviousResponseID = openai.String(req.PreviousResponseID)
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	if req.ReasoningSummary != "" {
		params.Reasoning = shared.ReasoningParam{
			Summary: shared.ReasoningSummary(req.ReasoningSummary),
		}
	}
	if req.Truncation != "" {
		params.Truncation = responses.ResponseNewParamsTruncation(req.Truncation)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	return convertResponse(resp), nil
}

// buildInput converts the pending output items to Responses API input items,
// preserving order.
func buildInput(input []model.InputItem) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(input))

	for _, in := range input {
		switch it := in.(type) {
		case model.ComputerCallOutput:
			out := &responses.ResponseInputItemComputerCallOutputParam{
				CallID: it.CallID,
				Output: responses.ResponseComputerToolCallOutputScreenshotParam{
					ImageURL: openai.String(it.Screenshot),
				},
			}
			for _, check := range it.AcknowledgedSafetyChecks {
				out.AcknowledgedSafetyChecks = append(out.AcknowledgedSafetyChecks,
					responses.ResponseInputItemComputerCallOutputAcknowledgedSafetyCheckParam{
						ID:      check.ID,
						Code:    openai.String(check.Code),
						Message: openai.String(check.Message),
					})
			}
			items = append(items, responses.ResponseInputItemUnionParam{
				OfComputerCallOutput: out,
			})

		case model.FunctionCallOutput:
			items = append(items, responses.ResponseInputItemUnionParam{
				OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
					CallID: it.CallID,
					Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
						OfString: openai.String(it.Output),
					},
				},
			})

		case model.UserMessage:
			items = append(items, responses.ResponseInputItemUnionParam{
				OfMessage: &responses.EasyInputMessageParam{
					Role: responses.EasyInputMessageRoleUser,
					Content: responses.EasyInputMessageContentUnionParam{
						OfString: openai.String(it.Content),
					},
				},
			})
		}
	}

	return items
}

// buildTools converts tool specs to Responses API tool definitions.
func buildTools(specs []ToolSpec) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, 0, len(specs))

	for _, spec := range specs {
		switch {
		case spec.Computer != nil:
			tools = append(tools, responses.ToolUnionParam{
				OfComputerUsePreview: &responses.ComputerToolParam{
					DisplayWidth:  int64(spec.Computer.DisplayWidth),
					DisplayHeight: int64(spec.Computer.DisplayHeight),
					Environment:   responses.ComputerToolEnvironment(spec.Computer.Environment),
				},
			})

		case spec.Function != nil:
			tools = append(tools, responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        spec.Function.Name,
					Description: openai.String(spec.Function.Description),
					Parameters:  spec.Function.Parameters,
				},
			})
		}
	}

	return tools
}

// convertResponse maps a Responses API response onto the model types.
// Uses flat fields from ResponseOutputItemUnion directly (rather than
// .AsMessage()/.AsComputerCall() which rely on internal JSON state).
// Unknown item types are preserved so the agent can fail fast on them.
func convertResponse(resp *responses.Response) *model.Response {
	out := &model.Response{
		ID:     resp.ID,
		Status: string(resp.Status),
	}

	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			converted := model.Item{
				Type: model.ItemTypeMessage,
				Role: string(item.Role),
			}
			for _, content := range item.Content {
				converted.Content = append(converted.Content, model.Content{
					Type: content.Type,
					Text: content.Text,
				})
			}
			out.Output = append(out.Output, converted)

		case "reasoning":
			converted := model.Item{Type: model.ItemTypeReasoning}
			for _, summary := range item.Summary {
				converted.Summary = append(converted.Summary, model.SummaryText{Text: summary.Text})
			}
			out.Output = append(out.Output, converted)

		case "computer_call":
			converted := model.Item{
				Type:   model.ItemTypeComputerCall,
				CallID: item.CallID,
				Action: convertAction(item.Action),
			}
			for _, check := range item.PendingSafetyChecks {
				converted.PendingSafetyChecks = append(converted.PendingSafetyChecks, model.SafetyCheck{
					ID:      check.ID,
					Code:    check.Code,
					Message: check.Message,
				})
			}
			out.Output = append(out.Output, converted)

		case "function_call":
			out.Output = append(out.Output, model.Item{
				Type:      model.ItemTypeFunctionCall,
				CallID:    item.CallID,
				Name:      item.Name,
				Arguments: json.RawMessage(item.Arguments),
			})

		default:
			out.Output = append(out.Output, model.Item{Type: item.Type})
		}
	}

	return out
}

// convertAction maps a computer call action onto the model action union.
func convertAction(a responses.ResponseOutputItemUnionAction) *model.Action {
	action := &model.Action{
		Type:    model.ActionType(a.Type),
		X:       int(a.X),
		Y:       int(a.Y),
		Button:  string(a.Button),
		ScrollX: int(a.ScrollX),
		ScrollY: int(a.ScrollY),
		Text:    a.Text,
		Keys:    a.Keys,
	}
	for _, p := range a.Path {
		action.Path = append(action.Path, model.Point{X: int(p.X), Y: int(p.Y)})
	}
	return action
}

// classifyError wraps throttling responses in *RateLimitError so the agent
// can retry with the server-suggested delay; everything else propagates.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{RetryAfter: suggestedWait(err.Error()), Err: err}
		}
		return fmt.Errorf("openai: %w", err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") {
		return &RateLimitError{RetryAfter: suggestedWait(err.Error()), Err: err}
	}
	return err
}

// Verify OpenAIChannel implements Channel.
var _ Channel = (*OpenAIChannel)(nil)
