package gamehandler

import (
	"errors"
	"net/http"

	"bollywoodgo/internal/services/game"
	"bollywoodgo/internal/services/results"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	games   game.IGameService
	results results.IResultsService
}

func New(games game.IGameService, res results.IResultsService) *Handler {
	return &Handler{games: games, results: res}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.list)
	r.GET("/rooms/:id", h.info)
	r.GET("/rooms/:id/stats", h.stats)
	r.GET("/rooms/:id/rounds", h.rounds)
	r.POST("/rooms/:id/strike", h.strike)
	r.GET("/leaderboard", h.leaderboard)
}

// @Summary		List live rooms
// @Tags			Rooms
// @Success		200	{array}	game.RoomSummary
// @Router			/rooms [get]
func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.games.ListRooms(c.Request.Context()))
}

// @Summary		Get room state
// @Description	Returns the same view clients receive as "roomState".
// @Tags			Rooms
// @Param			id	path		string	true	"Room ID"	default(r1)
// @Success		200	{object}	game.RoomView
// @Failure		404	{object}	ErrorResponse
// @Router			/rooms/{id} [get]
func (h *Handler) info(c *gin.Context) {
	view, err := h.games.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// instance picks the room instance a stats or history request is about: the
// "instance" query parameter, else the live room, else "" (latest archived).
func (h *Handler) instance(c *gin.Context) string {
	if inst := c.Query("instance"); inst != "" {
		return inst
	}
	if view, err := h.games.Snapshot(c.Request.Context(), c.Param("id")); err == nil {
		return view.Instance
	}
	return ""
}

// @Summary		Room round counters
// @Description	Counters of the live room, or of the most recent archived room with this ID.
// @Tags			Rooms
// @Param			id			path		string	true	"Room ID"		default(r1)
// @Param			instance	query		string	false	"Room instance"
// @Success		200			{object}	results.RoomStats
// @Failure		404			{object}	ErrorResponse
// @Failure		500			{object}	ErrorResponse
// @Router			/rooms/{id}/stats [get]
func (h *Handler) stats(c *gin.Context) {
	st, err := h.results.RoomStats(c.Request.Context(), c.Param("id"), h.instance(c))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, results.ErrStatsNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary		Archived rounds of a room
// @Description	Most recent first. Limited to the live room unless it is gone.
// @Tags			Rooms
// @Param			id		path		string	true	"Room ID"				default(r1)
// @Param			instance	query	string	false	"Room instance"
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		results.RoundRecord
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/rooms/{id}/rounds [get]
func (h *Handler) rounds(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.results.RoomHistory(c.Request.Context(), c.Param("id"), h.instance(c), q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Register a timeout strike
// @Description	Hook for an external turn timer. A round of 0 strikes whatever round is in play.
// @Tags			Rooms
// @Param			id		path	string		true	"Room ID"	default(r1)
// @Param			body	body	StrikeBody	false	"Round guard"
// @Success		202
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/rooms/{id}/strike [post]
func (h *Handler) strike(ginCtx *gin.Context) {
	var body StrikeBody
	if ginCtx.Request.ContentLength > 0 {
		if err := ginCtx.ShouldBindJSON(&body); err != nil {
			ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
			return
		}
	}

	ctx := ginCtx.Request.Context()
	roomID := ginCtx.Param("id")
	var err error
	if body.Round > 0 {
		err = h.games.RegisterTimeoutStrikeForTurn(ctx, game.TurnRef{RoomID: roomID, Round: body.Round})
	} else {
		err = h.games.RegisterTimeoutStrike(ctx, roomID)
	}
	switch {
	case err == nil:
		ginCtx.Status(http.StatusAccepted)
	case errors.Is(err, game.ErrRoomNotFound):
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
	default:
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
	}
}

// @Summary		Player leaderboard
// @Description	Players ranked by rounds won while guessing.
// @Tags			Leaderboard
// @Param			limit	query		int	false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Success		200		{array}		results.LeaderboardEntry
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/leaderboard [get]
func (h *Handler) leaderboard(c *gin.Context) {
	var q LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.results.Leaderboard(c.Request.Context(), q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
