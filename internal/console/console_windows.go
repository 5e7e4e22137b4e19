//go:build windows

package console

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	user32           = syscall.NewLazyDLL("user32.dll")
	attachConsole    = kernel32.NewProc("AttachConsole")
	allocConsole     = kernel32.NewProc("AllocConsole")
	getStdHandle     = kernel32.NewProc("GetStdHandle")
	getConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	setConsoleTitle  = kernel32.NewProc("SetConsoleTitleW")
	showWindowProc   = user32.NewProc("ShowWindow")
	setFocusProc     = user32.NewProc("SetFocus")
)

const (
	attachParentProcess = ^uint32(0) // -1 as uint32
	stdInputHandle      = ^uint32(0) - 10 + 1
	stdOutputHandle     = ^uint32(0) - 11 + 1
	stdErrorHandle      = ^uint32(0) - 12 + 1
	swShowNormal        = 1
)

func stdHandle(which uint32) (uintptr, bool) {
	h, _, _ := getStdHandle.Call(uintptr(which))
	return h, h != 0 && h != uintptr(syscall.InvalidHandle)
}

func attach() bool {
	if _, ok := stdHandle(stdOutputHandle); ok {
		return true
	}

	// Launched from Explorer: borrow the parent console or open a new one.
	allocated := false
	if ok, _, _ := attachConsole.Call(uintptr(attachParentProcess)); ok == 0 {
		if ok, _, _ := allocConsole.Call(); ok == 0 {
			return false
		}
		allocated = true
	}

	if h, ok := stdHandle(stdOutputHandle); ok {
		os.Stdout = os.NewFile(h, "/dev/stdout")
	}
	if h, ok := stdHandle(stdErrorHandle); ok {
		os.Stderr = os.NewFile(h, "/dev/stderr")
	}
	if h, ok := stdHandle(stdInputHandle); ok {
		os.Stdin = os.NewFile(h, "/dev/stdin")
	}

	if allocated {
		if hwnd := GetWindow(); hwnd != 0 {
			showWindowProc.Call(hwnd, swShowNormal)
			setFocusProc.Call(hwnd)
		}
	}
	return true
}

func setTitle(title string) error {
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	if r1, _, err := setConsoleTitle.Call(uintptr(unsafe.Pointer(titlePtr))); r1 == 0 {
		return fmt.Errorf("SetConsoleTitle failed: %v", err)
	}
	return nil
}

// GetWindow returns the console window handle (HWND)
func GetWindow() uintptr {
	if err := getConsoleWindow.Find(); err != nil {
		return 0
	}
	hwnd, _, _ := getConsoleWindow.Call()
	return hwnd
}
