package handlers

import (
	"net/http"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/logging"
)

// UploadHandler hands out credentials for direct browser uploads.
type UploadHandler struct {
	Uploads UploadAuthorizer
}

// Authorize handles GET /api/auth/upload-auth.
func (h UploadHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		respondUnauthorized(ctx, w)
		return
	}

	if h.Uploads == nil {
		logger.Error("upload delegate unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Failed to authorize upload")
		return
	}

	creds, err := h.Uploads.Authorize(ctx, session.UserID)
	if err != nil {
		logger.Error("upload authorization failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to authorize upload")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(ctx, w, http.StatusOK, uploadAuthResponse{
		AuthenticationParameters: uploadAuthParameters{
			Token:     creds.Token,
			Expire:    creds.Expire,
			Signature: creds.Signature,
		},
		PublicKey: creds.PublicKey,
		UploadURL: creds.UploadURL,
		FileURL:   creds.FileURL,
	})
}

type uploadAuthParameters struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

type uploadAuthResponse struct {
	AuthenticationParameters uploadAuthParameters `json:"authenticationParameters"`
	PublicKey                string               `json:"publicKey,omitempty"`
	UploadURL                string               `json:"uploadUrl,omitempty"`
	FileURL                  string               `json:"fileUrl,omitempty"`
}
