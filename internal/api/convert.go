package api

import (
	"stylesync/internal/jobs"
	"stylesync/internal/upload"
)

// FromJob converts a job record to its API representation.
func FromJob(job jobs.Job) Job {
	dto := Job{
		ID:              job.ID,
		Album:           job.Album,
		FileType:        string(job.FileType),
		Outreach:        job.Outreach,
		StyleIntensity:  job.StyleIntensity,
		ColorVariation:  job.ColorVariation,
		LayoutVariation: job.LayoutVariation,
		Notes:           job.Notes,
		Status:          string(job.Status),
		OutputPath:      copyString(job.OutputPath),
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(list []jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		out = append(out, FromJob(job))
	}
	return out
}

// FromUploadRecord converts one upload log entry.
func FromUploadRecord(rec upload.Record) UploadRecord {
	dto := UploadRecord{
		Album:        rec.Album,
		StoredPath:   rec.StoredPath,
		OriginalPath: rec.OriginalPath,
		MIME:         rec.MIME,
		DeclaredType: string(rec.DeclaredType),
		DeclaredMIME: copyString(rec.DeclaredMIME),
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromUploadResult converts an ingestion result and renders its notice.
func FromUploadResult(result upload.Result) UploadResponse {
	dto := UploadResponse{
		Handled:      result.Handled,
		Skipped:      result.Skipped,
		ActiveAlbum:  result.ActiveAlbum,
		Notice:       result.Notice(),
		SkippedFiles: make([]SkippedFile, 0, len(result.SkippedFiles)),
	}
	for _, s := range result.SkippedFiles {
		dto.SkippedFiles = append(dto.SkippedFiles, SkippedFile{Path: s.Path, Reason: s.Reason})
	}
	return dto
}

// UploadURL maps an album-relative image path onto the static uploads route.
func UploadURL(relPath string) *string {
	if relPath == "" {
		return nil
	}
	u := jobs.OutputPrefix + relPath
	return &u
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
