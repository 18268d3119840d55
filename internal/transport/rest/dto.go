package rest

import (
	"time"

	"github.com/ganjineh/ganjineh-backend/internal/domain"
	"github.com/ganjineh/ganjineh-backend/internal/service/search"
)

type poetResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
	BirthYear   *int    `json:"birthYear,omitempty"`
	DeathYear   *int    `json:"deathYear,omitempty"`
}

func toPoetResponse(p domain.Poet) poetResponse {
	return poetResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		BirthYear:   p.BirthYear,
		DeathYear:   p.DeathYear,
	}
}

func toPoetResponses(poets []domain.Poet) []poetResponse {
	out := make([]poetResponse, 0, len(poets))
	for _, p := range poets {
		out = append(out, toPoetResponse(p))
	}
	return out
}

type chapterResponse struct {
	ID        int               `json:"id"`
	ParentID  int               `json:"parentId"`
	Title     string            `json:"title"`
	PoemCount int               `json:"poemCount"`
	Children  []chapterResponse `json:"children,omitempty"`
}

func toChapterResponse(ch domain.Chapter) chapterResponse {
	out := chapterResponse{
		ID:        ch.ID,
		ParentID:  ch.ParentID,
		Title:     ch.Title,
		PoemCount: ch.PoemCount,
	}
	for _, child := range ch.Children {
		out.Children = append(out.Children, toChapterResponse(child))
	}
	return out
}

type categoryResponse struct {
	ID          int               `json:"id"`
	PoetID      int               `json:"poetId"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Description *string           `json:"description,omitempty"`
	PoemCount   int               `json:"poemCount"`
	Chapters    []chapterResponse `json:"chapters,omitempty"`
}

func toCategoryResponse(c domain.Category) categoryResponse {
	out := categoryResponse{
		ID:          c.ID,
		PoetID:      c.PoetID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		PoemCount:   c.PoemCount,
	}
	for _, ch := range c.Chapters {
		out.Chapters = append(out.Chapters, toChapterResponse(ch))
	}
	return out
}

func toCategoryResponses(cats []domain.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

type poetProfileResponse struct {
	Poet       poetResponse       `json:"poet"`
	Categories []categoryResponse `json:"categories"`
}

func toPoetProfileResponse(p *domain.PoetProfile) poetProfileResponse {
	return poetProfileResponse{
		Poet:       toPoetResponse(p.Poet),
		Categories: toCategoryResponses(p.Categories),
	}
}

type poemResponse struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Verses        []string `json:"verses"`
	PoetID        int      `json:"poetId"`
	PoetName      string   `json:"poetName"`
	CategoryID    int      `json:"categoryId"`
	CategoryTitle string   `json:"categoryTitle"`
	ChapterID     *int     `json:"chapterId,omitempty"`
	ChapterTitle  *string  `json:"chapterTitle,omitempty"`
}

func toPoemResponse(p domain.Poem) poemResponse {
	verses := p.Verses
	if verses == nil {
		verses = []string{}
	}
	return poemResponse{
		ID:            p.ID,
		Title:         p.Title,
		Verses:        verses,
		PoetID:        p.PoetID,
		PoetName:      p.PoetName,
		CategoryID:    p.CategoryID,
		CategoryTitle: p.CategoryTitle,
		ChapterID:     p.ChapterID,
		ChapterTitle:  p.ChapterTitle,
	}
}

func toPoemResponses(poems []domain.Poem) []poemResponse {
	out := make([]poemResponse, 0, len(poems))
	for _, p := range poems {
		out = append(out, toPoemResponse(p))
	}
	return out
}

type searchTotalsResponse struct {
	Poets      int `json:"poets"`
	Categories int `json:"categories"`
	Poems      int `json:"poems"`
}

type searchResponse struct {
	Poets      []poetResponse        `json:"poets"`
	Categories []categoryResponse    `json:"categories"`
	Poems      []poemResponse        `json:"poems"`
	Totals     *searchTotalsResponse `json:"totals,omitempty"`
}

func toSearchResponse(res *search.Result) searchResponse {
	out := searchResponse{
		Poets:      toPoetResponses(res.Poets),
		Categories: toCategoryResponses(res.Categories),
		Poems:      toPoemResponses(res.Poems),
	}
	if res.Totals != nil {
		out.Totals = &searchTotalsResponse{
			Poets:      res.Totals.Poets,
			Categories: res.Totals.Categories,
			Poems:      res.Totals.Poems,
		}
	}
	return out
}

type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func toContactResponse(m *domain.ContactMessage) contactResponse {
	return contactResponse{
		ID:        m.ID.String(),
		Name:      m.Name,
		Email:     m.Email,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}
