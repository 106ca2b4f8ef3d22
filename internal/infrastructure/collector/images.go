package collector

// Education-themed stock fallbacks used when a page yields no usable
// image. Selection is keyed on the article ID so it is stable across runs.
var fallbackImages = []string{
	"https://images.unsplash.com/photo-1503676260728-1c00da094a0b?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1509062522246-3755977927d7?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1577896851231-70ef18881754?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1488521787991-ed7bbaae773c?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1497633762265-9d179a990aa6?w=400&h=300&fit=crop",
	"https://images.unsplash.com/photo-1544717305-2782549b5136?w=400&h=300&fit=crop",
}

// FallbackImage picks a deterministic stock image for the article ID.
func FallbackImage(articleID string) string {
	sum := 0
	for _, r := range articleID {
		sum += int(r)
	}
	return fallbackImages[sum%len(fallbackImages)]
}
