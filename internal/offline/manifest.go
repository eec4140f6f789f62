package offline

// OfflinePage is the fallback served for navigation requests that fail
// while offline and have no exact cache entry.
const OfflinePage = "/offline.html"

// DefaultManifest lists every asset populated into the cache bucket at
// install. Any deployment that adds or removes an app asset must update
// this list, or the new asset is never available offline.
func DefaultManifest() []string {
	return []string{
		"/",
		"/index.html",
		"/manifest.webmanifest",
		"/styles/main.css",
		"/icons/icon-192.png",
		"/icons/icon-512.png",
		"/scripts/app.js",
		"/scripts/state.js",
		"/scripts/tracker.js",
		"/scripts/habits.js",
		"/scripts/calendar.js",
		"/scripts/badges.js",
		"/scripts/ranks.js",
		"/scripts/scores.js",
		"/scripts/xp.js",
		"/scripts/groups.js",
		"/scripts/stats.js",
		"/scripts/i18n.js",
		"/scripts/notifications.js",
		OfflinePage,
		"/legal.html",

		// Pinned third-party SDK scripts, cached by full URL.
		"https://www.gstatic.com/firebasejs/9.23.0/firebase-app-compat.js",
		"https://www.gstatic.com/firebasejs/9.23.0/firebase-auth-compat.js",
		"https://www.gstatic.com/firebasejs/9.23.0/firebase-firestore-compat.js",
	}
}
