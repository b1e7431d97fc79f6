// Package domain holds DTOs for the curation rule tables
package domain

// WeightedWord is a merit or demerit title word
type WeightedWord struct {
	Word   string `json:"word"`
	Weight int    `json:"weight"`
}

// WeightedDomain is a merit or demerit source domain
type WeightedDomain struct {
	Domain string `json:"domain"`
	Weight int    `json:"weight"`
}
