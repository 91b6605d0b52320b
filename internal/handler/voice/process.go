package voice

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/tanuki-create/voicechat/internal/service/pipeline"
	"github.com/tanuki-create/voicechat/pkg/utils"
)

// handleProcessAudio runs the three-stage pipeline once over an
// uploaded audio file and responds synchronously. It never creates a
// multi-turn session and never finalizes.
func (h *Handler) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}

	result, err := h.orchestrator.RunOnce(r.Context(), audio)
	if errors.Is(err, pipeline.ErrNoSpeech) {
		utils.RespondError(w, http.StatusBadRequest, "音声からテキストを抽出できませんでした")
		return
	}
	if err != nil {
		log.Printf("[voice] process-audio failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "音声処理中にエラーが発生しました: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
