package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/careerkb-backend/internal/catalog"
	"github.com/yungbote/careerkb-backend/internal/connectors"
	"github.com/yungbote/careerkb-backend/internal/data/repos"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
	"github.com/yungbote/careerkb-backend/internal/services"
)

type Services struct {
	Extractor    services.ExtractorService
	Consolidator services.ConsolidatorService
	GraphSync    services.GraphSyncService
	Agent        services.AgentService
	Interview    services.InterviewService
	Knowledge    services.KnowledgeService
	Costs        services.CostTracker
	Connectors   *connectors.Manager
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, rs repos.Set, costs services.CostTracker, clients *Clients) (Services, error) {
	log.Info("Wiring services...")
	cat := catalog.Default()

	fileConn, err := connectors.NewFile(log, cfg.ConnectorFileDir)
	if err != nil {
		return Services{}, fmt.Errorf("init file connector: %w", err)
	}

	graph := services.NewGraphSyncService(log, clients.Neo4j, rs)
	extractor := services.NewExtractorService(db, log, clients.Locker, rs, clients.AI, cat, services.ExtractorConfig{
		Model: cfg.OpenAIModel,
	})
	consolidator := services.NewConsolidatorService(db, log, clients.Locker, rs, graph)
	agent := services.NewAgentService(db, log, rs, clients.AI, clients.Audio, cat, extractor, consolidator, services.AgentConfig{
		Model: cfg.OpenAIModel,
		Voice: cfg.TTSVoice,
	})
	interview := services.NewInterviewService(log, rs, cat, clients.Speech, clients.Audio, costs, extractor, consolidator, agent,
		services.InterviewConfig{StoreAudio: cfg.StoreAudio})

	return Services{
		Extractor:    extractor,
		Consolidator: consolidator,
		GraphSync:    graph,
		Agent:        agent,
		Interview:    interview,
		Knowledge:    services.NewKnowledgeService(log, rs),
		Costs:        costs,
		Connectors:   connectors.NewManager(log, connectors.NewMock(), fileConn),
	}, nil
}
