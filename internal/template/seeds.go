package template

// builtinTemplates returns the seeded scaffold catalog. Content
// strings are text/template sources rendered by the generator with
// the project name substituted.
func builtinTemplates() []*Template {
	return []*Template{
		grpcTemplate(),
		restTemplate(),
		websocketTemplate(),
	}
}

func grpcTemplate() *Template {
	return &Template{
		ID:           "grpc",
		Name:         "gRPC Service",
		ProtocolType: "grpc",
		Languages:    []string{"go", "typescript"},
		Description:  "Contract-first gRPC service with a generated client stub.",
		Files: []File{
			{
				Path: "README.md",
				Role: RoleShared,
				Content: `# {{.ProjectName}}

gRPC service scaffold. The wire contract lives in proto/{{.ModuleName}}.proto;
regenerate stubs after every contract change.
`,
			},
			{
				Path: "proto/{{.ModuleName}}.proto",
				Role: RoleShared,
				Content: `syntax = "proto3";

package {{.PackageName}};

service {{.TypeName}}Service {
  rpc Echo(EchoRequest) returns (EchoResponse);
  rpc Watch(WatchRequest) returns (stream WatchEvent);
}

message EchoRequest {
  string message = 1;
}

message EchoResponse {
  string message = 1;
}

message WatchRequest {
  string topic = 1;
}

message WatchEvent {
  string topic = 1;
  string payload = 2;
  int64 emitted_at = 3;
}
`,
			},
			{
				Path:     "server/main.go",
				Role:     RoleServer,
				Language: "go",
				Content: `package main

import (
	"log"
	"net"

	"google.golang.org/grpc"
)

func main() {
	lis, err := net.Listen("tcp", ":50051")
	if err != nil {
		log.Fatalf("{{.ProjectName}}: listen: %v", err)
	}

	srv := grpc.NewServer()
	// Register the {{.TypeName}}Service implementation here once the
	// stubs are generated from proto/{{.ModuleName}}.proto.

	log.Printf("{{.ProjectName}} gRPC server listening on %s", lis.Addr())
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("{{.ProjectName}}: serve: %v", err)
	}
}
`,
			},
			{
				Path:     "server/src/server.ts",
				Role:     RoleServer,
				Language: "typescript",
				Content: `import { Server, ServerCredentials } from "@grpc/grpc-js";

const server = new Server();
// Register the {{.TypeName}}Service implementation here once the
// stubs are generated from proto/{{.ModuleName}}.proto.

server.bindAsync("0.0.0.0:50051", ServerCredentials.createInsecure(), (err, port) => {
  if (err) {
    console.error("{{.ProjectName}}: bind failed", err);
    process.exit(1);
  }
  console.log("{{.ProjectName}} gRPC server listening on port " + port);
});
`,
			},
			{
				Path:     "client/client.go",
				Role:     RoleClient,
				Language: "go",
				Content: `package main

import (
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	conn, err := grpc.NewClient("localhost:50051",
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("{{.ProjectName}}: dial: %v", err)
	}
	defer conn.Close()

	// Call {{.TypeName}}Service methods through the generated stub.
	log.Println("{{.ProjectName}} client connected")
}
`,
			},
			{
				Path:     "client/src/client.ts",
				Role:     RoleClient,
				Language: "typescript",
				Content: `import { credentials } from "@grpc/grpc-js";

// Call {{.TypeName}}Service methods through the generated stub.
const target = process.env.{{.EnvPrefix}}TARGET ?? "localhost:50051";
const creds = credentials.createInsecure();

console.log("{{.ProjectName}} client targeting " + target);
`,
			},
		},
	}
}

func restTemplate() *Template {
	return &Template{
		ID:           "rest",
		Name:         "REST API",
		ProtocolType: "rest",
		Languages:    []string{"go", "typescript"},
		Description:  "JSON-over-HTTP API with an OpenAPI contract and a typed client.",
		Files: []File{
			{
				Path: "README.md",
				Role: RoleShared,
				Content: `# {{.ProjectName}}

REST API scaffold. The contract lives in api/openapi.yaml; keep it in
sync with the handlers.
`,
			},
			{
				Path: "api/openapi.yaml",
				Role: RoleShared,
				Content: `openapi: "3.0.3"
info:
  title: {{.ProjectName}}
  version: 0.1.0
paths:
  /healthz:
    get:
      summary: Liveness probe
      responses:
        "200":
          description: OK
  /v1/echo:
    post:
      summary: Echo a message back
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              properties:
                message:
                  type: string
      responses:
        "200":
          description: Echoed message
`,
			},
			{
				Path:     "server/main.go",
				Role:     RoleServer,
				Language: "go",
				Content: `package main

import (
	"encoding/json"
	"log"
	"net/http"
)

type echoRequest struct {
	Message string ` + "`" + `json:"message"` + "`" + `
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/echo", func(w http.ResponseWriter, r *http.Request) {
		var req echoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": req.Message})
	})

	log.Println("{{.ProjectName}} listening on :8080")
	log.Fatal(http.ListenAndServe(":8080", mux))
}
`,
			},
			{
				Path:     "server/src/index.ts",
				Role:     RoleServer,
				Language: "typescript",
				Content: `import express from "express";

const app = express();
app.use(express.json());

app.get("/healthz", (_req, res) => res.sendStatus(200));
app.post("/v1/echo", (req, res) => res.json({ message: req.body.message }));

app.listen(8080, () => {
  console.log("{{.ProjectName}} listening on :8080");
});
`,
			},
			{
				Path:     "client/client.go",
				Role:     RoleClient,
				Language: "go",
				Content: `package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
)

func main() {
	body := bytes.NewBufferString(` + "`" + `{"message":"hello from {{.ProjectName}}"}` + "`" + `)
	resp, err := http.Post("http://localhost:8080/v1/echo", "application/json", body)
	if err != nil {
		log.Fatalf("{{.ProjectName}}: request: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Println(string(out))
}
`,
			},
			{
				Path:     "client/src/client.ts",
				Role:     RoleClient,
				Language: "typescript",
				Content: `const base = process.env.{{.EnvPrefix}}BASE_URL ?? "http://localhost:8080";

const res = await fetch(base + "/v1/echo", {
  method: "POST",
  headers: { "Content-Type": "application/json" },
  body: JSON.stringify({ message: "hello from {{.ProjectName}}" }),
});

console.log(await res.json());
`,
			},
		},
	}
}

func websocketTemplate() *Template {
	return &Template{
		ID:           "websocket",
		Name:         "WebSocket Service",
		ProtocolType: "websocket",
		Languages:    []string{"go", "typescript"},
		Description:  "Bidirectional WebSocket service with a reconnecting client.",
		Files: []File{
			{
				Path: "README.md",
				Role: RoleShared,
				Content: `# {{.ProjectName}}

WebSocket service scaffold. Frames are JSON objects with a "type"
field; extend the switch in the server handler to add message types.
`,
			},
			{
				Path:     "server/main.go",
				Role:     RoleServer,
				Language: "go",
				Content: `package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	})

	log.Println("{{.ProjectName}} listening on :8080")
	log.Fatal(http.ListenAndServe(":8080", nil))
}
`,
			},
			{
				Path:     "server/src/index.ts",
				Role:     RoleServer,
				Language: "typescript",
				Content: `import { WebSocketServer } from "ws";

const wss = new WebSocketServer({ port: 8080 });

wss.on("connection", (socket) => {
  socket.on("message", (data) => {
    socket.send(data.toString());
  });
});

console.log("{{.ProjectName}} listening on :8080");
`,
			},
			{
				Path:     "client/client.go",
				Role:     RoleClient,
				Language: "go",
				Content: `package main

import (
	"log"

	"github.com/gorilla/websocket"
)

func main() {
	conn, _, err := websocket.DefaultDialer.Dial("ws://localhost:8080/ws", nil)
	if err != nil {
		log.Fatalf("{{.ProjectName}}: dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "hello"}); err != nil {
		log.Fatalf("{{.ProjectName}}: write: %v", err)
	}

	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		log.Fatalf("{{.ProjectName}}: read: %v", err)
	}
	log.Printf("{{.ProjectName}} received: %v", reply)
}
`,
			},
			{
				Path:     "client/src/client.ts",
				Role:     RoleClient,
				Language: "typescript",
				Content: `const url = process.env.{{.EnvPrefix}}WS_URL ?? "ws://localhost:8080/ws";
const socket = new WebSocket(url);

socket.addEventListener("open", () => {
  socket.send(JSON.stringify({ type: "hello" }));
});

socket.addEventListener("message", (event) => {
  console.log("{{.ProjectName}} received", event.data);
});
`,
			},
		},
	}
}
