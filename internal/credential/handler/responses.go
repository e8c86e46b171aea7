package handler

type KeyResponse struct {
	Key string `json:"key"`
}

type DegreeResponse struct {
	DegreeID string `json:"degree_id"`
}

type CountResponse struct {
	University string `json:"university"`
	Count      int    `json:"count"`
}

type VerifyResponse struct {
	DegreeID string `json:"degree_id"`
	Valid    bool   `json:"valid"`
}

type ReindexResponse struct {
	Written int `json:"written"`
}
