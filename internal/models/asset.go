package models

import "time"

// Asset 代表一个正在上传的逻辑文件
// 相机先创建 asset 获取上传地址,随后以任意顺序、任意并发度推送分片
type Asset struct {
	ID            string        // 创建时分配的 uuid,是所有分片的关联键
	Name          string        // 清洗后的基础文件名,路径成分已剥离
	Filesize      *int64        // 客户端声明的大小,可能缺失
	Filetype      string        // content-type 提示
	IsRealtime    bool          // 实时上传:分片数按需增长,由显式完成信号收尾
	ExpectedParts int           // 当前预期的分片总数
	NextPart      int           // 下一个待分配的实时分片号
	ReceivedParts map[int]int64 // 分片号(1 起) -> 已收到的字节数,键唯一是不变式
	RealtimeDone  bool          // 实时上传已收到完成信号
	Complete      bool          // 终态标志,只由装配器置位一次
	CreatedAt     time.Time
}
