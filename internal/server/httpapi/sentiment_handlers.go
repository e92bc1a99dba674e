package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/services"
	"github.com/gin-gonic/gin"
)

type startSentimentRequest struct {
	FileIDs     []int64 `json:"file_ids"`
	StudentName string  `json:"student_name" binding:"omitempty,personname"`
	ParentName  string  `json:"parent_name" binding:"omitempty,personname"`
	GradeName   string  `json:"grade_name"`
}

type sentimentResultView struct {
	FileID   int64                     `json:"file_id"`
	Analysis *models.SentimentAnalysis `json:"analysis,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// handleStartSentiment answers 200 when at least one file was analyzed and
// 422 when every file failed.
func (a *API) handleStartSentiment(c *gin.Context) {
	var req startSentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation error",
			"error":   validationMessages(err),
		})
		return
	}

	results, err := a.deps.Sentiments.Start(c.Request.Context(), actorFrom(c), services.StartInput{
		FileIDs:     req.FileIDs,
		StudentName: req.StudentName,
		ParentName:  req.ParentName,
		GradeName:   req.GradeName,
	})
	if err != nil {
		a.respondError(c, err, "Sentiment analysis failed")
		return
	}

	views := make([]sentimentResultView, 0, len(results))
	succeeded := 0
	for _, r := range results {
		if r.Analysis != nil {
			succeeded++
		}
		views = append(views, sentimentResultView{FileID: r.FileID, Analysis: r.Analysis, Error: r.Error})
	}

	status := http.StatusOK
	if succeeded == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"success": succeeded > 0, "results": views})
}

func (a *API) handleListSentiment(c *gin.Context) {
	list, err := a.deps.Sentiments.List(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		a.respondError(c, err, "Failed to fetch analyses")
		return
	}
	c.JSON(http.StatusOK, list)
}
