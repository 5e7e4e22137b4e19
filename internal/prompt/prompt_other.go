//go:build !windows

package prompt

func (p *Prompter) selectFolder(defaultPath string) (string, error) {
	return p.ReadPath("Instances folder", defaultPath)
}
