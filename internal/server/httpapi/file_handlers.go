package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (a *API) handleListFiles(c *gin.Context) {
	var q models.FileQuery
	for name, dst := range map[string]*int{"status_id": &q.StatusID, "limit": &q.Limit, "offset": &q.Offset} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondMessage(c, http.StatusBadRequest, "Invalid "+name)
			return
		}
		*dst = n
	}

	files, err := a.deps.Files.List(c.Request.Context(), actorFrom(c).UserID, q)
	if err != nil {
		a.respondError(c, err, "Failed to fetch files")
		return
	}
	c.JSON(http.StatusOK, files)
}

func (a *API) handleListStatuses(c *gin.Context) {
	statuses, err := a.deps.Files.ListStatuses(c.Request.Context())
	if err != nil {
		a.respondError(c, err, "Failed to fetch status")
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (a *API) handleListCategories(c *gin.Context) {
	categories, err := a.deps.Files.ListCategories(c.Request.Context())
	if err != nil {
		a.respondError(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// handleUpload accepts one or more "file" parts. An optional "duration"
// value per file is matched by position.
func (a *API) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		a.respondUploadError(c, err)
		return
	}

	headers := form.File["file"]
	if len(headers) == 0 {
		respondMessage(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	durations := form.Value["duration"]

	inputs := make([]services.UploadInput, 0, len(headers))
	for i, fh := range headers {
		in, closeFn, err := openUpload(fh)
		if err != nil {
			a.respondError(c, err, "Failed to read uploaded file")
			return
		}
		defer closeFn()
		if i < len(durations) {
			in.Duration = durations[i]
		}
		inputs = append(inputs, in)
	}

	files, err := a.deps.Files.Upload(c.Request.Context(), actorFrom(c), inputs)
	if err != nil {
		a.respondError(c, err, "Failed to upload file")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "files": files})
}

func (a *API) respondUploadError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		respondMessage(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	respondMessage(c, http.StatusBadRequest, "No file uploaded")
}

func openUpload(fh *multipart.FileHeader) (services.UploadInput, func() error, error) {
	f, err := fh.Open()
	if err != nil {
		return services.UploadInput{}, nil, err
	}
	return services.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f.Close, nil
}

func (a *API) handleGetFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	f, err := a.deps.Files.Get(c.Request.Context(), actorFrom(c).UserID, id)
	if err != nil {
		a.respondError(c, err, notFoundOr(err, "File not found", "Failed to fetch file"))
		return
	}
	c.JSON(http.StatusOK, f)
}

func (a *API) handleDeleteFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := a.deps.Files.Delete(c.Request.Context(), actorFrom(c).UserID, id); err != nil {
		a.respondError(c, err, notFoundOr(err, "File not found", "Failed to delete file"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "File deleted"})
}

func (a *API) handleDownloadURL(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	url, err := a.deps.Files.DownloadURL(c.Request.Context(), actorFrom(c).UserID, id)
	if err != nil {
		a.respondError(c, err, notFoundOr(err, "File not found", "Failed to create download link"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": url})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusBadRequest, "Invalid file id")
		return 0, false
	}
	return id, true
}
