package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Source = (*GeminiSource)(nil)

// GeminiSource implements Source using the Google Gemini API.
type GeminiSource struct {
	Client *genai.Client

	// Model should not start with "models/".
	Model  string
	Params *Params
}

// Open starts a streaming generation. Gemini delivers function calls
// whole, so each one becomes a single complete tool-call fragment; a turn
// boundary is emitted before the normal end of stream.
func (s *GeminiSource) Open(ctx context.Context, req *Request) (Stream, error) {
	cfg, contents, err := s.convRequest(req)
	if err != nil {
		return nil, err
	}
	sb := NewStreamBuilder(32)
	go func() {
		if err := geminiPull(sb, s.Client.Models.GenerateContentStream(ctx, s.Model, contents, cfg)); err != nil {
			sb.Abort(geminiConvErr(err))
		}
	}()
	return sb.Stream(), nil
}

// Invoke runs one non-streaming generation.
func (s *GeminiSource) Invoke(ctx context.Context, req *Request) (*Completion, error) {
	cfg, contents, err := s.convRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Models.GenerateContent(ctx, s.Model, contents, cfg)
	if err != nil {
		return nil, geminiConvErr(err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("unexpected finish reason: %s", cand.FinishReason)
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p.FunctionCall != nil {
			b, _ := json.Marshal(p.FunctionCall.Args)
			return &Completion{Call: &FuncCall{
				ID:        p.FunctionCall.Name,
				Name:      p.FunctionCall.Name,
				Arguments: string(b),
			}}, nil
		}
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	return &Completion{Text: sb.String()}, nil
}

func geminiPull(builder *StreamBuilder, itr iter.Seq2[*genai.GenerateContentResponse, error]) error {
	var selIdx int32
	sawToolCall := false
	callSeq := 0
	for chunk, err := range itr {
		if err != nil {
			return err
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		var sel *genai.Candidate
		if selIdx == 0 {
			selIdx = chunk.Candidates[0].Index
			sel = chunk.Candidates[0]
		} else {
			for _, c := range chunk.Candidates {
				if c.Index == selIdx {
					sel = c
					break
				}
			}
			if sel == nil {
				continue
			}
		}

		for _, p := range sel.Content.Parts {
			switch {
			case p.Text != "":
				if err := builder.Add(&Fragment{Kind: FragmentText, Text: p.Text}); err != nil {
					return err
				}
			case p.FunctionCall != nil:
				b, _ := json.Marshal(p.FunctionCall.Args)
				sawToolCall = true
				callSeq++
				// Calls arrive whole and unnamed; synthesize an id so two
				// calls of the same function in one turn stay distinct.
				id := p.FunctionCall.ID
				if id == "" {
					id = fmt.Sprintf("%s-%d", p.FunctionCall.Name, callSeq)
				}
				if err := builder.Add(&Fragment{
					Kind: FragmentToolCall,
					ID:   id,
					Name: p.FunctionCall.Name,
					Args: string(b),
				}); err != nil {
					return err
				}
			}
		}

		switch sel.FinishReason {
		case genai.FinishReasonUnspecified, "":
			// keep pulling
		case genai.FinishReasonStop:
			if sawToolCall {
				if err := builder.Add(&Fragment{Kind: FragmentTurnEnd}); err != nil {
					return err
				}
			}
			return builder.Done()
		case genai.FinishReasonMaxTokens:
			return builder.Abort(ErrTruncated)
		case genai.FinishReasonSafety:
			var cats []string
			for _, sr := range sel.SafetyRatings {
				if sr.Blocked {
					cats = append(cats, string(sr.Category))
				}
			}
			return builder.Abort(Blocked("blocked by " + strings.Join(cats, ", ")))
		default:
			return builder.Abort(fmt.Errorf("unexpected finish reason: %s", sel.FinishReason))
		}
	}
	return errors.New("unexpected end of stream: no finish reason")
}

func (s *GeminiSource) convRequest(req *Request) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := genai.GenerateContentConfig{}

	var prompts []*genai.Part
	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			prompts = append(prompts, genai.NewPartFromText(msg.Content))
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		case RoleModel:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})
		default:
			return nil, nil, fmt.Errorf("unexpected message role: %s", msg.Role)
		}
	}
	if len(prompts) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: prompts}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("no contents")
	}

	mp := s.Params
	if req.Params != nil {
		mp = req.Params
	}
	if mp != nil {
		cfg.MaxOutputTokens = int32(mp.MaxTokens)
		if mp.Temperature > 0 {
			cfg.Temperature = &mp.Temperature
		}
		if mp.TopP > 0 {
			cfg.TopP = &mp.TopP
		}
	}

	for _, t := range req.Tools {
		cfg.Tools = append(cfg.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  geminiConvSchema(t.Argument),
				},
			},
		})
	}

	return &cfg, contents, nil
}

func geminiConvErr(err error) error {
	if e, ok := err.(*apierror.APIError); ok {
		return e.Unwrap()
	}
	return err
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
