package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"
)

var _ Source = (*OpenAISource)(nil)

const (
	oaiFinishReasonStop          = "stop"
	oaiFinishReasonToolCalls     = "tool_calls"
	oaiFinishReasonLength        = "length"
	oaiFinishReasonFunctionCall  = "function_call"
	oaiFinishReasonContentFilter = "content_filter"
)

// OpenAISource implements Source using the OpenAI chat completions API or
// any compatible endpoint.
type OpenAISource struct {
	Client *openai.Client

	Model  string
	Params *Params
}

// Open starts a streaming chat completion. Tool-call deltas are forwarded
// as raw fragments; a turn boundary is emitted when the backend reports
// finish_reason tool_calls.
func (s *OpenAISource) Open(ctx context.Context, req *Request) (Stream, error) {
	params, err := s.chatCompletion(req)
	if err != nil {
		return nil, err
	}
	sb := NewStreamBuilder(32)
	go func() {
		if err := oaiPull(sb, s.Client.Chat.Completions.NewStreaming(ctx, params)); err != nil {
			sb.Abort(err)
		}
	}()
	return sb.Stream(), nil
}

// Invoke runs one non-streaming completion and returns the assistant text
// or the first tool call.
func (s *OpenAISource) Invoke(ctx context.Context, req *Request) (*Completion, error) {
	params, err := s.chatCompletion(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, Blocked(choice.Message.Refusal)
	}
	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		return &Completion{Call: &FuncCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}}, nil
	}
	return &Completion{Text: choice.Message.Content}, nil
}

func (s *OpenAISource) chatCompletion(req *Request) (openai.ChatCompletionNewParams, error) {
	params := openai.ChatCompletionNewParams{
		Model: s.Model,
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		case RoleModel:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("unexpected message role: %s", msg.Role)
		}
	}
	mp := s.Params
	if req.Params != nil {
		mp = req.Params
	}
	if mp != nil {
		if mp.MaxTokens > 0 {
			params.MaxCompletionTokens = param.NewOpt(int64(mp.MaxTokens))
		}
		if mp.Temperature > 0 {
			params.Temperature = param.NewOpt(float64(mp.Temperature))
		}
		if mp.TopP > 0 {
			params.TopP = param.NewOpt(float64(mp.TopP))
		}
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
				Parameters:  oaiConvSchema(tool.Argument),
			},
		})
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: param.NewOpt("auto"),
		}
	}
	return params, nil
}

func oaiPull(sb *StreamBuilder, stream *ssestream.Stream[openai.ChatCompletionChunk]) error {
	var index int64
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		var sel *openai.ChatCompletionChunkChoice
		if index == 0 {
			index = chunk.Choices[0].Index
			sel = &chunk.Choices[0]
		} else {
			for _, c := range chunk.Choices {
				if c.Index == index {
					sel = &c
					break
				}
			}
			if sel == nil {
				continue
			}
		}
		if s := sel.Delta.Content; s != "" {
			if err := sb.Add(&Fragment{Kind: FragmentText, Text: s}); err != nil {
				return err
			}
		}
		for _, t := range sel.Delta.ToolCalls {
			if err := sb.Add(&Fragment{
				Kind: FragmentToolCall,
				ID:   t.ID,
				Name: t.Function.Name,
				Args: t.Function.Arguments,
			}); err != nil {
				return err
			}
		}
		switch sel.FinishReason {
		case oaiFinishReasonFunctionCall, oaiFinishReasonToolCalls:
			if err := sb.Add(&Fragment{Kind: FragmentTurnEnd}); err != nil {
				return err
			}
			return sb.Done()
		case oaiFinishReasonStop:
			return sb.Done()
		case oaiFinishReasonLength:
			return sb.Abort(ErrTruncated)
		case oaiFinishReasonContentFilter:
			return sb.Abort(Blocked(sel.Delta.Refusal))
		}
		if s := sel.Delta.Refusal; s != "" {
			return sb.Abort(Blocked(s))
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return sb.Done()
}

// oaiConvSchema converts a jsonschema schema to the loosely typed map the
// OpenAI SDK expects for function parameters.
func oaiConvSchema(s *jsonschema.Schema) openai.FunctionParameters {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m openai.FunctionParameters
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
