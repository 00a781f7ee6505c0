package gfx

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// upperHalf draws the top pixel of a cell in the foreground color and the
// bottom pixel in the background color.
const upperHalf = '▀'

// TerminalSurface presents images on a tcell screen, two pixels per cell.
type TerminalSurface struct {
	screen    tcell.Screen
	outOfDate atomic.Bool
	quit      chan struct{}
	quitOnce  sync.Once
	events    sync.WaitGroup
	closeOnce sync.Once
}

// OpenTerminal takes over the controlling terminal.
func OpenTerminal() (*TerminalSurface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalSurface(screen)
}

// NewTerminalSurface initializes screen and starts watching it for resize
// and quit keys (Escape, Ctrl-C, q).
func NewTerminalSurface(screen tcell.Screen) (*TerminalSurface, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()

	s := &TerminalSurface{
		screen: screen,
		quit:   make(chan struct{}),
	}
	s.events.Add(1)
	go s.watch()
	return s, nil
}

func (s *TerminalSurface) watch() {
	defer s.events.Done()
	for {
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			// Screen finalized
			return
		case *tcell.EventResize:
			s.outOfDate.Store(true)
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				s.quitOnce.Do(func() { close(s.quit) })
			}
		}
	}
}

// Quit is closed when the user asks to leave.
func (s *TerminalSurface) Quit() <-chan struct{} {
	return s.quit
}

func (s *TerminalSurface) Screen() tcell.Screen {
	return s.screen
}

func (s *TerminalSurface) Extent() (int, int) {
	cols, rows := s.screen.Size()
	return cols, rows * 2
}

func (s *TerminalSurface) Configure(width, height int) error {
	s.outOfDate.Store(false)
	s.screen.Clear()
	return nil
}

func (s *TerminalSurface) OutOfDate() bool {
	return s.outOfDate.Load()
}

func (s *TerminalSurface) Present(img *image.RGBA) error {
	cols, rows := s.screen.Size()
	b := img.Bounds()
	cols = min(cols, b.Dx())
	rows = min(rows, b.Dy()/2)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := img.RGBAAt(b.Min.X+x, b.Min.Y+2*y)
			bottom := img.RGBAAt(b.Min.X+x, b.Min.Y+2*y+1)
			style := tcell.StyleDefault.Foreground(cellColor(top)).Background(cellColor(bottom))
			s.screen.SetContent(x, y, upperHalf, nil, style)
		}
	}
	s.screen.Show()
	return nil
}

func cellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Close restores the terminal.
func (s *TerminalSurface) Close() error {
	s.closeOnce.Do(func() {
		s.screen.Fini()
		s.events.Wait()
	})
	return nil
}
