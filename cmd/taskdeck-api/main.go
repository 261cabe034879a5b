package main

import (
	"context"
	"log"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/adapters/agent"
	"github.com/taskdeck/taskdeck/internal/adapters/auth"
	httpadapter "github.com/taskdeck/taskdeck/internal/adapters/http"
	firestorestore "github.com/taskdeck/taskdeck/internal/adapters/storage/firestore"
	memstore "github.com/taskdeck/taskdeck/internal/adapters/storage/memory"
	sqlitestore "github.com/taskdeck/taskdeck/internal/adapters/storage/sqlite"
	"github.com/taskdeck/taskdeck/internal/app/chat"
	"github.com/taskdeck/taskdeck/internal/app/tools"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/domain"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	// Storage: memory, SQLite or Firestore
	var (
		convStore domain.ConversationStore
		msgStore  domain.MessageStore
		taskStore domain.TaskStore
	)

	switch cfg.Storage.Backend {
	case "memory":
		log.Println("[STORE] Using in-memory storage")
		cs := memstore.NewConversationStore()
		ms := memstore.NewMessageStore()
		cs.SetMessageStore(ms)
		convStore = cs
		msgStore = ms
		taskStore = memstore.NewTaskStore()

	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCP.Project)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCP.Project)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 3 interfaces
		convStore = fsStore
		msgStore = fsStore
		taskStore = fsStore

	default:
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.Storage.SQLitePath)
		sqlStore, err := sqlitestore.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer sqlStore.Close()

		convStore = sqlStore
		msgStore = sqlStore
		taskStore = sqlStore
	}

	registry := tools.NewTaskRegistry(taskStore)

	// Agent: mock or Vertex AI
	var agentClient domain.AgentClient

	if cfg.Agent.UseMock {
		log.Println("[AGENT] Using MOCK agent client")
		agentClient = agent.NewMockAgent(registry)
	} else {
		log.Println("[AGENT] Using Vertex AI agent client")
		agentClient, err = agent.NewGenAIClient(ctx, cfg.GCP.Project, cfg.GCP.Location, cfg.Agent.Model, registry)
		if err != nil {
			log.Fatalf("error initializing Vertex AI agent client: %v", err)
		}
	}

	// Auth: configured tokens, or the insecure dev fallback
	var verifier domain.TokenVerifier
	if len(cfg.Auth.Tokens) > 0 {
		verifier = auth.NewStaticVerifier(cfg.Auth.Tokens)
	} else {
		if cfg.Mode == config.ModeGCP {
			log.Fatal("auth.tokens must be configured in gcp mode")
		}
		log.Println("[AUTH] No tokens configured, using insecure dev verifier")
		verifier = auth.NewInsecureVerifier()
	}

	svc := chat.NewService(agentClient, convStore, msgStore, cfg.Chat.MaxMessageChars)

	handler := httpadapter.NewServer(svc, verifier)

	addr := ":" + cfg.Port
	log.Println("Taskdeck API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
