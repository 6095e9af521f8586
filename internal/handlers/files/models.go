package files

type UploadOutput struct {
	Message     string `json:"message"`
	Key         string `json:"key"`
	Bucket      string `json:"bucket"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
}
