package implementation

import (
	"context"

	"ai-affairs-gateway/internal/entity"
	"ai-affairs-gateway/internal/repository/contract"

	"gorm.io/gorm"
)

type AffairsFileRepositoryImpl struct {
	db *gorm.DB
}

func NewAffairsFileRepository(db *gorm.DB) contract.AffairsFileRepository {
	return &AffairsFileRepositoryImpl{
		db: db,
	}
}

func (r *AffairsFileRepositoryImpl) FindAllByTitles(ctx context.Context, titles []string) ([]*entity.AffairsFile, error) {
	if len(titles) == 0 {
		return []*entity.AffairsFile{}, nil
	}
	var files []*entity.AffairsFile
	err := r.db.WithContext(ctx).
		Where("title IN ?", titles).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}
