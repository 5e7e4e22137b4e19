//go:build windows

package prompt

import (
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// BIF_EDITBOX | BIF_NEWDIALOGSTYLE
const browseFlags = 0x10 | 0x40

func (p *Prompter) selectFolder(defaultPath string) (string, error) {
	fmt.Fprintln(p.out, "\nPress Enter to select the Prism Launcher instances folder...")
	_, _ = p.readLine()

	consoleHandle := uintptr(0)
	if p.cfg.GetConsoleWindow != nil {
		consoleHandle = p.cfg.GetConsoleWindow()
	}

	if err := ole.CoInitialize(0); err != nil {
		return p.ReadPath("Instances folder", defaultPath)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return "", fmt.Errorf("failed to create Shell object: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", fmt.Errorf("failed to get IDispatch interface: %w", err)
	}
	defer shell.Release()

	folderObj, err := oleutil.CallMethod(shell, "BrowseForFolder", int(consoleHandle),
		"Select the Prism Launcher instances folder", browseFlags)
	if err != nil {
		return "", fmt.Errorf("failed to show folder dialog: %w", err)
	}
	defer folderObj.Clear()

	if folderObj.Value() == nil {
		return "", ErrCancelled
	}
	folderItem := folderObj.ToIDispatch()
	if folderItem == nil {
		return "", ErrCancelled
	}

	selfProp, err := oleutil.GetProperty(folderItem, "Self")
	if err != nil {
		return "", fmt.Errorf("failed to get folder item: %w", err)
	}
	selfDispatch := selfProp.ToIDispatch()
	defer selfDispatch.Release()

	pathProp, err := oleutil.GetProperty(selfDispatch, "Path")
	if err != nil {
		return "", fmt.Errorf("failed to get folder path: %w", err)
	}

	selectedPath := pathProp.ToString()
	if selectedPath == "" {
		return "", fmt.Errorf("no folder selected")
	}
	return selectedPath, nil
}
