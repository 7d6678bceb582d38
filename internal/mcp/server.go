// Package mcp implements a stdio JSON-RPC inspection server over the
// live component trees: resources describe what is registered, tools
// read and edit properties and commit documents. It speaks MCP framing
// over any reader/writer pair; there is no network listener.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// Message is an MCP JSON-RPC message.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Resource is a readable inspection endpoint.
type Resource struct {
	URI         string
	Name        string
	Description string
	Handler     func() (interface{}, error)
}

// Tool is a callable inspection or editing operation.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Handler     func(args map[string]interface{}) (interface{}, error)
}

// Server processes MCP messages over a reader/writer pair.
type Server struct {
	resources map[string]*Resource
	tools     map[string]*Tool
	input     io.Reader
	output    io.Writer
	verbosity int
}

// NewServer creates an MCP server reading requests from input and
// writing responses to output.
func NewServer(input io.Reader, output io.Writer) *Server {
	return &Server{
		resources: make(map[string]*Resource),
		tools:     make(map[string]*Tool),
		input:     input,
		output:    output,
	}
}

// SetVerbosity sets the verbosity level for request logging.
func (s *Server) SetVerbosity(level int) {
	s.verbosity = level
}

// RegisterResource adds a resource to the server.
func (s *Server) RegisterResource(r *Resource) {
	s.resources[r.URI] = r
}

// RegisterTool adds a tool to the server.
func (s *Server) RegisterTool(t *Tool) {
	s.tools[t.Name] = t
}

// Serve processes messages until the input is exhausted.
func (s *Server) Serve() error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Printf("[mcp] Failed to parse message: %v", err)
			continue
		}
		if s.verbosity >= 2 {
			log.Printf("[v2] mcp request: %s", msg.Method)
		}

		if response := s.handle(&msg); response != nil {
			if err := s.send(response); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func (s *Server) handle(msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return s.success(msg.ID, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"resources": map[string]interface{}{},
				"tools":     map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "oak",
				"version": "0.1.0",
			},
		})
	case "resources/list":
		return s.listResources(msg)
	case "resources/read":
		return s.readResource(msg)
	case "tools/list":
		return s.listTools(msg)
	case "tools/call":
		return s.callTool(msg)
	case "notifications/initialized":
		return nil
	default:
		return s.failure(msg.ID, -32601, "Method not found")
	}
}

func (s *Server) listResources(msg *Message) *Message {
	resources := make([]map[string]interface{}, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, map[string]interface{}{
			"uri":         r.URI,
			"name":        r.Name,
			"description": r.Description,
			"mimeType":    "application/json",
		})
	}
	return s.success(msg.ID, map[string]interface{}{"resources": resources})
}

func (s *Server) readResource(msg *Message) *Message {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.failure(msg.ID, -32602, "Invalid params")
	}

	resource, ok := s.resources[params.URI]
	if !ok {
		return s.failure(msg.ID, -32602, "Resource not found")
	}

	content, err := resource.Handler()
	if err != nil {
		return s.failure(msg.ID, -32603, err.Error())
	}

	contentJSON, _ := json.Marshal(content)
	return s.success(msg.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      params.URI,
				"mimeType": "application/json",
				"text":     string(contentJSON),
			},
		},
	})
}

func (s *Server) listTools(msg *Message) *Message {
	tools := make([]map[string]interface{}, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	return s.success(msg.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) callTool(msg *Message) *Message {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments,omitempty"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.failure(msg.ID, -32602, "Invalid params")
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		return s.failure(msg.ID, -32602, "Tool not found")
	}

	result, err := tool.Handler(params.Arguments)
	if err != nil {
		return s.success(msg.ID, map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Error: %v", err)},
			},
			"isError": true,
		})
	}

	resultJSON, _ := json.Marshal(result)
	return s.success(msg.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(resultJSON)},
		},
	})
}

func (s *Server) success(id interface{}, result interface{}) *Message {
	resultJSON, _ := json.Marshal(result)
	return &Message{JSONRPC: "2.0", ID: id, Result: resultJSON}
}

func (s *Server) failure(id interface{}, code int, message string) *Message {
	return &Message{JSONRPC: "2.0", ID: id, Error: &ErrorObject{Code: code, Message: message}}
}

func (s *Server) send(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.output, "%s\n", data)
	return err
}
