package gamehandler

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type HistoryQuery struct {
	Limit  int `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name HistoryQuery

type LeaderboardQuery struct {
	Limit int `form:"limit,default=10" binding:"gte=0,lte=100"`
} // @name LeaderboardQuery

type StrikeBody struct {
	Round int `json:"round" binding:"gte=0" example:"2"`
} // @name StrikeRequest
