// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// Win32 codes from ReadDirectoryChangesW: too many open files (4), invalid
// handle after the directory went away (6) and not enough memory (8).
var brokenErrnos = []syscall.Errno{4, 6, 8}
