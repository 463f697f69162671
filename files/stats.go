package files

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
)

var languageByExtension = map[string]string{
	".js": "JavaScript", ".jsx": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript",
	".vue": "Vue", ".svelte": "Svelte",
	".py": "Python", ".rb": "Ruby", ".php": "PHP", ".java": "Java",
	".c": "C", ".h": "C", ".cpp": "C++", ".hpp": "C++", ".cs": "C#",
	".go": "Go", ".rs": "Rust", ".swift": "Swift", ".kt": "Kotlin", ".scala": "Scala",
	".html": "HTML", ".htm": "HTML", ".css": "CSS", ".scss": "SCSS", ".sass": "Sass", ".less": "Less",
	".json": "JSON", ".xml": "XML", ".yaml": "YAML", ".yml": "YAML", ".toml": "TOML",
	".sql": "SQL", ".sh": "Shell", ".bat": "Batch", ".ps1": "PowerShell",
}

// ProjectStats summarises a materialized file set
type ProjectStats struct {
	TotalFiles  int            `json:"totalFiles"`
	TotalSize   int64          `json:"totalSize"`
	BinaryFiles int            `json:"binaryFiles"`
	FileTypes   map[string]int `json:"fileTypes"`
	Languages   map[string]int `json:"languages"`
}

// PrimaryLanguage returns the most frequent language, ties broken by name
func (s ProjectStats) PrimaryLanguage() string {
	best, bestCount := "", 0
	for lang, count := range s.Languages {
		if count > bestCount || (count == bestCount && lang < best) {
			best, bestCount = lang, count
		}
	}
	return best
}

// ComputeStats counts files by extension and guessed language
func ComputeStats(entries []FileEntry) ProjectStats {
	stats := ProjectStats{
		FileTypes: make(map[string]int),
		Languages: make(map[string]int),
	}
	for _, e := range entries {
		stats.TotalFiles++
		stats.TotalSize += e.Size
		if e.Encoding == EncodingBase64 {
			stats.BinaryFiles++
		}
		ext := strings.ToLower(path.Ext(e.Path))
		if ext == "" {
			continue
		}
		stats.FileTypes[ext]++
		if lang, ok := languageByExtension[ext]; ok {
			stats.Languages[lang]++
		}
	}
	return stats
}

// FormatSize renders a byte count as e.g. "1.5 MB"
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	value := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(value, 'f', -1, 64), units[i])
}
