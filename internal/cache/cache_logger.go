package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

func UserKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

func ClassListKey(college, major string) string {
	return fmt.Sprintf("list:%s:%s", college, major)
}

const ClassListAllKey = "list:all"

// InvalidateClassCache drops the full list and the (college, major) list
func InvalidateClassCache(ctx context.Context, cm *CacheManager, college, major string) {
	SafeDelete(ctx, cm.Class, ClassListAllKey, ClassListKey(college, major))
}

func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.User, UserKey(userID))
}

// InvalidateClassLists drops every cached class list
func InvalidateClassLists(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Class, "list:*")
}
