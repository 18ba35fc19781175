package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// listQuery binds the listing parameters. Absent optional values stay nil.
type listQuery struct {
	GroupID          *int64     `form:"group_id"`
	NameQuery        string     `form:"name_query"`
	IsLoggedIn       bool       `form:"is_logged_in"`
	NotCompletedOnly bool       `form:"not_completed_only"`
	PageSize         int        `form:"page_size" binding:"required,min=1"`
	TakeLower        bool       `form:"take_lower"`
	FirstQID         *int64     `form:"first_q_id"`
	LastQID          *int64     `form:"last_q_id"`
	FirstPostedTime  *time.Time `form:"first_posted_time" time_format:"2006-01-02T15:04:05.999999999Z07:00"`
	LastPostedTime   *time.Time `form:"last_posted_time" time_format:"2006-01-02T15:04:05.999999999Z07:00"`
	UserID           *int64     `form:"user_id"`
	PostedByUserID   *int64     `form:"posted_by_user_id"`
}

func (q listQuery) pageQuery() models.PageQuery {
	return models.PageQuery{
		GroupID:          q.GroupID,
		NameQuery:        q.NameQuery,
		IsLoggedIn:       q.IsLoggedIn,
		NotCompletedOnly: q.NotCompletedOnly,
		PageSize:         q.PageSize,
		TakeLower:        q.TakeLower,
		FirstQID:         q.FirstQID,
		LastQID:          q.LastQID,
		FirstPostedTime:  q.FirstPostedTime,
		LastPostedTime:   q.LastPostedTime,
		UserID:           q.UserID,
		PostedByUserID:   q.PostedByUserID,
	}
}

func (s *Server) listQuestions(c *gin.Context) {
	var req listQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	q := req.pageQuery()
	// A verified caller is always the viewer, whatever user_id says.
	if sess := sessionFrom(c); sess.IsAuthenticated() {
		q.IsLoggedIn = true
		q.UserID = sess.UserIDPtr()
	}

	page, err := s.storage.ListQuestions(c.Request.Context(), q)
	if err != nil {
		s.fail(c, "list_questions", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getQuestion(c *gin.Context) {
	id, ok := int64Param(c, "q_id")
	if !ok {
		return
	}

	q, err := s.storage.GetQuestion(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		s.fail(c, "get_question", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) createQuestion(c *gin.Context) {
	var req models.NewQuestion
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	q, err := s.storage.CreateQuestion(c.Request.Context(), sessionFrom(c), req)
	if err != nil {
		s.fail(c, "create_question", err)
		return
	}

	s.logger.Info("create_question: question created",
		zap.Int64("question_id", q.ID),
		zap.Int64("user_id", q.PostedByID),
	)
	c.JSON(http.StatusCreated, q)
}

func (s *Server) markQuestion(c *gin.Context) {
	var req models.Mark
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.storage.MarkQuestion(c.Request.Context(), sessionFrom(c), req); err != nil {
		s.fail(c, "mark_question", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteQuestion(c *gin.Context) {
	id, ok := int64Param(c, "q_id")
	if !ok {
		return
	}

	if err := s.storage.DeleteQuestion(c.Request.Context(), sessionFrom(c), id); err != nil {
		s.fail(c, "delete_question", err)
		return
	}

	s.logger.Info("delete_question: question deleted", zap.Int64("question_id", id))
	c.Status(http.StatusNoContent)
}

func (s *Server) createSolution(c *gin.Context) {
	var req models.NewSolution
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sol, err := s.storage.CreateSolution(c.Request.Context(), sessionFrom(c), req)
	if err != nil {
		s.fail(c, "create_solution", err)
		return
	}
	c.JSON(http.StatusCreated, sol)
}

func (s *Server) listUsers(c *gin.Context) {
	var groupID *int64
	if raw := c.Query("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid group_id format")
			return
		}
		groupID = &id
	}

	users, err := s.storage.ListUsers(c.Request.Context(), groupID)
	if err != nil {
		s.fail(c, "list_users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) listLanguages(c *gin.Context) {
	langs, err := s.storage.ListLanguages(c.Request.Context())
	if err != nil {
		s.fail(c, "list_languages", err)
		return
	}
	c.JSON(http.StatusOK, langs)
}

func (s *Server) groupStats(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	stats, err := s.storage.GroupStats(c.Request.Context(), sessionFrom(c), id)
	if err != nil {
		s.fail(c, "group_stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name+" format")
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps storage sentinels to HTTP statuses.
func (s *Server) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, storage.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrBadRequest):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(op+": failed", zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
