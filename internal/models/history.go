package models

import "time"

// HistoryEntry 是一条已完成文件的不可变记录
// 由装配成功追加,或在启动时通过扫描磁盘已有文件重建
type HistoryEntry struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Directory string    `json:"directory"` // 相对于上传根目录的日期子目录
	Type      string    `json:"type"`      // content-type 提示,磁盘重建时为空
	Timestamp time.Time `json:"timestamp"`
}
