package handlers

import (
	"encoding/json"
	"net/http"

	"letterlove/internal/render"
)

const robotsTxt = `User-agent: *
Allow: /
Disallow: /dashboard/
Disallow: /api/
`

type manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

var webManifest = manifest{
	Name:            "LetterLove - AI Powered Love Letters",
	ShortName:       "LetterLove",
	Description:     "Create beautiful, personalized love letters and cards with AI assistance.",
	StartURL:        "/",
	Display:         "standalone",
	BackgroundColor: "#ffffff",
	ThemeColor:      render.DefaultThemeColor,
	Icons: []manifestIcon{
		{Src: "/icon-192.png", Sizes: "192x192", Type: "image/png"},
		{Src: "/icon-512.png", Sizes: "512x512", Type: "image/png"},
	},
}

// Health reports that the process is serving requests.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Robots serves robots.txt.
func Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(robotsTxt))
}

// Manifest serves the web app manifest.
func Manifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(webManifest)
}
