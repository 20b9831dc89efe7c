package domain

import "time"

// File is an uploaded document. Records are immutable once written.
type File struct {
	FileID           string    `json:"id" dynamodbav:"file_id"`
	Filename         string    `json:"filename" dynamodbav:"filename"`
	OriginalFilename string    `json:"original_filename" dynamodbav:"original_filename"`
	Path             string    `json:"-" dynamodbav:"path"`
	Size             int64     `json:"file_size" dynamodbav:"size"`
	Type             string    `json:"file_type" dynamodbav:"type"`
	Hash             string    `json:"hash" dynamodbav:"hash"`
	UploaderID       string    `json:"uploader_id" dynamodbav:"uploader_id"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"created_at"`
}
