package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/civicbridge/civicbridge/errors"
	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tools"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Invoker executes a named tool with structured arguments and returns
// the result as text.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

// GeminiClient is a client for the Google Gemini API. Unlike the other
// backends, Gemini's function calls are resolved inline while reading
// the response content stream, so Chat never returns tool calls; the
// results are folded into the assistant text.
type GeminiClient struct {
	model   *genai.GenerativeModel
	invoker Invoker
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string, invoker Invoker) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.WithSentinel(errors.ErrBackendConfig, nil,
			"GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	model := client.GenerativeModel(modelName)

	return &GeminiClient{
		model:   model,
		invoker: invoker,
	}, nil
}

// Chat sends a chat request to the Gemini API.
func (g *GeminiClient) Chat(ctx context.Context, messages []session.Message, availableTools []tools.Descriptor) (*session.Message, error) {
	history := convertMessagesToGeminiContent(messages)
	g.model.Tools = convertDescriptorsToGeminiTools(availableTools)

	// The last message is the new prompt.
	lastMessage := history[len(history)-1]

	chatSession := g.model.StartChat()
	chatSession.History = history[:len(history)-1]
	resp, err := chatSession.SendMessage(ctx, lastMessage.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}

	return g.processGeminiResponse(ctx, resp)
}

// convertMessagesToGeminiContent converts our internal message format to Gemini's.
func convertMessagesToGeminiContent(messages []session.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		role := "user" // Default to user
		if msg.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

// convertDescriptorsToGeminiTools re-serializes catalog descriptors into
// Gemini's FunctionDeclaration format, mapping the JSON schema
// field-wise onto genai.Schema.
func convertDescriptorsToGeminiTools(ts []tools.Descriptor) []*genai.Tool {
	if len(ts) == 0 {
		return nil
	}
	var funcDecls []*genai.FunctionDeclaration
	for _, t := range ts {
		funcDecls = append(funcDecls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  jsonSchemaToGenai(t.InputSchema),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcDecls}}
}

// jsonSchemaToGenai maps a decoded JSON schema onto genai.Schema. Only
// the fields Gemini understands are carried over.
func jsonSchemaToGenai(schema map[string]interface{}) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}
	if schema == nil {
		return out
	}

	if t, ok := schema["type"].(string); ok {
		out.Type = genaiType(t)
	}
	if d, ok := schema["description"].(string); ok {
		out.Description = d
	}
	if f, ok := schema["format"].(string); ok {
		out.Format = f
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		out.Items = jsonSchemaToGenai(items)
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				out.Properties[name] = jsonSchemaToGenai(pm)
			}
		}
	}
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if enum, ok := schema["enum"].([]interface{}); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// processGeminiResponse converts a Gemini API response into our internal
// session.Message format, resolving any function calls inline.
func (g *GeminiClient) processGeminiResponse(ctx context.Context, resp *genai.GenerateContentResponse) (*session.Message, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("received an empty response from Gemini")
	}

	content := resp.Candidates[0].Content
	var responseContent string

	for _, part := range content.Parts {
		switch v := part.(type) {
		case genai.Text:
			responseContent += string(v)
		case genai.FunctionCall:
			if g.invoker == nil {
				responseContent += fmt.Sprintf("Error: model requested to call tool %q but no tool server is connected", v.Name)
				continue
			}
			result, err := g.invoker.Invoke(ctx, v.Name, v.Args)
			if err != nil {
				// Tool failures are shown to the model, not fatal.
				responseContent += fmt.Sprintf("Error executing tool %q: %v", v.Name, err)
				continue
			}
			if result == "" {
				result = "Tool returned no content."
			}
			responseContent += result
		default:
			return nil, errors.New("unsupported part type in Gemini response: %T", v)
		}
	}

	return &session.Message{
		Role:    "assistant",
		Content: responseContent,
	}, nil
}
