package model

type ConvertRequestBody struct {
	// Pages are encoded page images (PNG or JPEG).
	Pages [][]byte `json:"pages"`
}

type PageStatus struct {
	Index int    `json:"index"`
	Notes int    `json:"notes"`
	Error string `json:"error,omitempty"`
}

type ConvertResponse struct {
	Midi  []byte       `json:"midi"`
	Notes []Note       `json:"notes"`
	Pages []PageStatus `json:"pages"`
}

type PutScoreRequestBody struct {
	Sheet string `json:"sheet"`
	Page  int    `json:"page"`
	Midi  []byte `json:"midi"`
}

type ScoreMatch struct {
	Sheet      string  `json:"sheet"`
	Pages      []int   `json:"pages"`
	Similarity float64 `json:"similarity"`
}

type CreateSessionRequestBody struct {
	Sheet string `json:"sheet"`
	Page  int    `json:"page"`
}

type CreateSessionResponse struct {
	ID        string `json:"id"`
	NumEvents int    `json:"num_events"`
}

type AlignRequestBody struct {
	// Notes are raw transcriber output; close onsets are merged server side.
	Notes []Note `json:"notes"`
}

type AlignResponse struct {
	BestStart int     `json:"best_start"`
	BestEnd   int     `json:"best_end"`
	PlayTime  float64 `json:"play_time"`
	Distance  float64 `json:"distance"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
