package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/philling1/house-marketplace/internal/listing/domain"
	"github.com/philling1/house-marketplace/internal/platform/logger"
)

type FavoriteUsecase struct {
	repo   domain.FavoriteRepository
	logger *logger.Logger
}

func NewFavoriteUsecase(repo domain.FavoriteRepository, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		repo:   repo,
		logger: log.Named("FavoriteUsecase"),
	}
}

func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, userID, listingID string) error {
	favorite := &domain.Favorite{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now(),
	}
	err := uc.repo.Add(ctx, favorite)
	if err != nil {
		uc.logger.Error("failed to add favorite", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	}
	return err
}

func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	err := uc.repo.Remove(ctx, userID, listingID)
	if err != nil {
		uc.logger.Error("failed to remove favorite", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	}
	return err
}

func (uc *FavoriteUsecase) GetFavorites(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	favorites, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		uc.logger.Error("failed to fetch favorites", zap.String("user_id", userID), zap.Error(err))
	}
	return favorites, err
}
