package exporter

// ProgressEvent 导出进度
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// reportProgress 把 percent 钳制到 [0, 100] 后回调
func reportProgress(progress func(ProgressEvent), percent int, stage string) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{Percent: min(max(percent, 0), 100), Stage: stage})
}
