package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/dmitrijs2005/audioscribe/internal/server/transcriber"
	"github.com/gin-gonic/gin"
)

// handleTranscribeUpload proxies a multipart "file" to the transcription
// service. An optional "file_id" attaches the transcript to an existing file.
func (a *API) handleTranscribeUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		a.respondUploadError(c, err)
		return
	}

	var fileID *int64
	if v := c.PostForm("file_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			respondMessage(c, http.StatusBadRequest, "Invalid file id")
			return
		}
		fileID = &id
	}

	in, closeFn, err := openUpload(fh)
	if err != nil {
		a.respondError(c, err, "Failed to read uploaded file")
		return
	}
	defer closeFn()
	in.Duration = c.PostForm("duration")

	res, err := a.deps.Transcriptions.TranscribeUpload(c.Request.Context(), actorFrom(c), fileID, in)
	a.respondTranscription(c, res, err)
}

func (a *API) handleTranscribeStored(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := a.deps.Transcriptions.TranscribeStored(c.Request.Context(), actorFrom(c), id)
	a.respondTranscription(c, res, err)
}

func (a *API) respondTranscription(c *gin.Context, res *services.TranscriptionResult, err error) {
	if err != nil {
		var upstream *transcriber.UpstreamError
		switch {
		case errors.As(err, &upstream):
			status := upstream.StatusCode
			if status == 0 {
				status = http.StatusInternalServerError
			}
			a.logger.Warn(c.Request.Context(), "transcription upstream error", "status", upstream.StatusCode, "error", err)
			c.JSON(status, gin.H{"success": false, "message": "Transcription failed", "details": upstream.Body})
		case errors.Is(err, common.ErrorNotFound):
			respondMessage(c, http.StatusNotFound, "File not found")
		default:
			a.respondError(c, err, "Transcription failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"transcription_id": res.TranscriptionID,
		"file_id":          res.FileID,
		"data":             res.Data,
	})
}

func (a *API) handleListTranscriptions(c *gin.Context) {
	var fileID int64
	if v := c.Query("file_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			respondMessage(c, http.StatusBadRequest, "Invalid file id")
			return
		}
		fileID = id
	}

	list, err := a.deps.Transcriptions.ListTranscriptions(c.Request.Context(), actorFrom(c).UserID, fileID)
	if err != nil {
		a.respondError(c, err, "Failed to fetch transcriptions")
		return
	}
	c.JSON(http.StatusOK, list)
}
