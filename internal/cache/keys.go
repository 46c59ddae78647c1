package cache

import "fmt"

// Cache keys are component-scoped so TTL tiers stay independent.

func UserRecsKey(userID int64, n int) string {
	return fmt.Sprintf("rec:user:%d:limit:%d", userID, n)
}

func CollabKey(userID int64) string {
	return fmt.Sprintf("rec:collab:%d", userID)
}

func SimilarKey(productID int64, k int) string {
	return fmt.Sprintf("rec:similar:%d:limit:%d", productID, k)
}

func BoughtTogetherKey(productID int64, k int) string {
	return fmt.Sprintf("rec:fbt:%d:limit:%d", productID, k)
}

func TrendingKey(n int) string {
	return fmt.Sprintf("rec:trending:limit:%d", n)
}

func SeasonalKey(n int) string {
	return fmt.Sprintf("rec:seasonal:limit:%d", n)
}
