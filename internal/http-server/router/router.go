package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	avatar_h "image-compressor/internal/http-server/handler/avatar"
	image_h "image-compressor/internal/http-server/handler/image"
	photo_h "image-compressor/internal/http-server/handler/photo"
	"image-compressor/internal/http-server/middleware"
)

type Handler struct {
	PhotoHandler  *photo_h.PhotoHandler
	ImageHandler  *image_h.ImageHandler
	AvatarHandler *avatar_h.AvatarHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/photos", func(r chi.Router) {
			r.Post("/", h.PhotoHandler.UploadPhoto)
			r.Get("/{id}", h.PhotoHandler.GetPhoto)
			r.Get("/{id}/variants", h.PhotoHandler.GetVariants)
			r.Delete("/{id}", h.PhotoHandler.DeletePhoto)
		})

		r.Route("/images", func(r chi.Router) {
			r.Post("/validate", h.ImageHandler.ValidateImage)
			r.Post("/metadata", h.ImageHandler.GetMetadata)
			r.Post("/optimize", h.ImageHandler.OptimizeImage)
		})

		r.Get("/presets", h.ImageHandler.ListPresets)
		r.Get("/avatars/placeholder", h.AvatarHandler.GetPlaceholder)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
