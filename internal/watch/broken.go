// SPDX-License-Identifier: MPL-2.0

package watch

import "errors"

// watcherBroken reports whether err from fsnotify means the watcher cannot
// deliver events anymore, so Run should stop instead of logging and going on.
func watcherBroken(err error) bool {
	for _, errno := range brokenErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
