package http

import (
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/skillpath/skillpath-lms/internal/storage"
)

// UploadAssetHandler stores a slide asset under trainings/{trainingID}/{name}.
func UploadAssetHandler(store storage.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainingID := chi.URLParam(r, "trainingID")
		name := chi.URLParam(r, "name")
		if trainingID == "" || name == "" {
			http.Error(w, "training and asset name required", http.StatusBadRequest)
			return
		}
		key, err := store.Put(path.Join("trainings", trainingID, name), r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(key))
	}
}

func GetAssetHandler(store storage.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := path.Join("trainings", chi.URLParam(r, "trainingID"), chi.URLParam(r, "name"))
		rc, err := store.Get(key)
		if err != nil {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		_, _ = io.Copy(w, rc)
	}
}
