package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/claimcheck/internal/apperr"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/pipeline"
	"github.com/ppiankov/claimcheck/internal/transcript"
	"github.com/ppiankov/claimcheck/internal/util"
)

type textAnalysisRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source" binding:"omitempty,oneof=text video"`
}

type transcriptRequest struct {
	VideoID     string `json:"videoId" binding:"required,max=128"`
	VTT         string `json:"vtt" binding:"required_without=CaptionsURL"`
	CaptionsURL string `json:"captionsUrl" binding:"omitempty,url"`
}

type transcriptResponse struct {
	VideoID  string          `json:"videoId"`
	Segments []model.Segment `json:"segments"`
}

type videoAnalysisRequest struct {
	VideoID  string          `json:"videoId" binding:"required,max=128"`
	Segments []model.Segment `json:"segments" binding:"required,min=1"`
}

type videoAnalysisResponse struct {
	*model.AnalysisResult
	VideoID  string          `json:"videoId"`
	Segments []model.Segment `json:"segments"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "claimcheck API", "version": s.version})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleProviderHealth(c *gin.Context) {
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unconfigured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), providerProbeTTL)
	defer cancel()

	if !s.provider.IsAvailable(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "provider": s.provider.Name()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "provider": s.provider.Name()})
}

func (s *Server) handleTextAnalysis(c *gin.Context) {
	var req textAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), model.AnalysisRequest{Text: req.Text, Source: req.Source})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTranscript(c *gin.Context) {
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	content := req.VTT
	if content == "" {
		fetched, err := s.fetchCaptions(c.Request.Context(), req.CaptionsURL)
		if err != nil {
			abortWithError(c, err)
			return
		}
		content = fetched
	}

	segments := transcript.ParseVTT(content)
	if len(segments) == 0 {
		abortWithError(c, apperr.InvalidInput("no captions found in transcript"))
		return
	}

	c.JSON(http.StatusOK, transcriptResponse{VideoID: req.VideoID, Segments: segments})
}

func (s *Server) handleVideoAnalysis(c *gin.Context) {
	var req videoAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), model.AnalysisRequest{
		Text:   transcript.Join(req.Segments),
		Source: model.SourceVideo,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, videoAnalysisResponse{
		AnalysisResult: result,
		VideoID:        req.VideoID,
		Segments:       transcript.Annotate(req.Segments, result.Claims),
	})
}

// fetchCaptions downloads a caption file. Problems with the caller's URL are
// InvalidInput; failures on the way there are UpstreamUnavailable.
func (s *Server) fetchCaptions(ctx context.Context, rawURL string) (string, error) {
	if s.fetcher == nil {
		return "", apperr.InvalidInput("captionsUrl is not supported by this server")
	}

	result, err := s.fetcher.FetchWithRetry(ctx, rawURL)
	if err == nil {
		return result.Body, nil
	}

	var statusErr *pipeline.StatusError
	switch {
	case errors.Is(err, util.ErrNonPublicAddress):
		return "", apperr.InvalidInput("captionsUrl must point to a public host")
	case errors.Is(err, pipeline.ErrDisallowed):
		return "", apperr.InvalidInput("captionsUrl is disallowed by robots.txt")
	case errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError:
		return "", apperr.InvalidInput(fmt.Sprintf("captionsUrl returned HTTP %d", statusErr.StatusCode))
	default:
		return "", apperr.UpstreamUnavailable("could not download captions", err)
	}
}
