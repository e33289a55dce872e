// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// inotify runs out of watches (ENOSPC) or descriptors (EMFILE, ENFILE);
// none of these clear up while the process keeps its watches.
var brokenErrnos = []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}
