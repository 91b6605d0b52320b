package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	conversationhandler "github.com/tanuki-create/voicechat/internal/handler/conversation"
	"github.com/tanuki-create/voicechat/internal/handler/voice"
	middlewarePkg "github.com/tanuki-create/voicechat/internal/middleware"
	"github.com/tanuki-create/voicechat/internal/service/pipeline"
	"github.com/tanuki-create/voicechat/pkg/utils"
)

// NewRouter wires HTTP routes to core services. audioDir is served
// read-only under /audio for previously synthesized artifacts.
func NewRouter(orchestrator *pipeline.Orchestrator, mirror conversationhandler.Mirror, audioDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Voice Chat API is running"})
	})

	r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))

	voice.New(orchestrator).RegisterRoutes(r)

	if mirror != nil {
		r.Route("/api", func(api chi.Router) {
			conversationhandler.New(mirror).RegisterRoutes(api)
		})
	}

	return r
}
