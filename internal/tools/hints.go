package tools

import "runtime"

func installHints(tool string) []string {
	switch tool {
	case "biber":
		return []string{"biber ships with TeX Live; on Debian-based systems: sudo apt install biber"}
	case "latex", "pdflatex", "bibtex", "makeindex", "kpsewhich":
	default:
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{"Install MacTeX: brew install --cask mactex-no-gui"}
	case "linux":
		return []string{"Install TeX Live with your distro package manager, e.g. sudo apt install texlive-latex-extra"}
	case "windows":
		return []string{
			"Install MiKTeX via winget: winget install MiKTeX.MiKTeX",
			"or TeX Live from https://tug.org/texlive/",
		}
	default:
		return []string{"Install a TeX distribution using your platform's package manager"}
	}
}
