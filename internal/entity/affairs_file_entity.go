package entity

// AffairsFile is one row of the document lookup store: a published affairs
// document with its persisted download URL. Title is the file name without
// its extension. This subsystem only ever reads the table.
type AffairsFile struct {
	Id     int    `gorm:"primaryKey"`
	Title  string `gorm:"type:text;index"`
	PdfUrl string `gorm:"type:text;column:pdf_url"`
}

func (AffairsFile) TableName() string {
	return "agt_affairs_files"
}
