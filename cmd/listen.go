package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/follow"
	"github.com/jsphweid/scoretrack/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	inPort int
	pause  time.Duration
)

func init() {
	addReferenceFlags(listenCmd)
	listenCmd.Flags().IntVar(&roundSize, "round", 8, "notes per round")
	listenCmd.Flags().IntVar(&inPort, "in", 0, "MIDI input port number")
	listenCmd.Flags().DurationVar(&pause, "pause", 750*time.Millisecond, "silence after which a short round is aligned anyway")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Follows a live MIDI keyboard through a reference",
	Long:  `Follows a live MIDI keyboard through a reference`,
	Run: func(cmd *cobra.Command, args []string) {
		listen()
	},
}

// listener turns live note on/off messages into rounds for a session.
type listener struct {
	mu      sync.Mutex
	session *follow.Session
	size    int
	held    map[uint8]float64
	pending []model.Note
	flush   func(f func())
	report  func(follow.Result, error)
}

func newListener(session *follow.Session, size int, pause time.Duration, report func(follow.Result, error)) *listener {
	return &listener{
		session: session,
		size:    size,
		held:    make(map[uint8]float64),
		flush:   debounce.New(pause),
		report:  report,
	}
}

func (l *listener) noteOn(key uint8, at float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = at
}

func (l *listener) noteOff(key uint8, at float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	start, ok := l.held[key]
	if !ok {
		return
	}
	delete(l.held, key)
	l.pending = append(l.pending, model.Note{Pitch: key, Start: start, Duration: at - start})

	if len(l.pending) >= l.size {
		l.alignLocked()
		return
	}
	l.flush(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.alignLocked()
	})
}

func (l *listener) alignLocked() {
	if len(l.pending) == 0 {
		return
	}
	query := follow.MergeOnsets(l.pending, constants.OnsetMergeWindow)
	l.pending = nil

	ctx, cancel := context.WithTimeout(context.Background(), constants.AlignTimeout)
	defer cancel()
	res, err := l.session.Align(ctx, query)
	if errors.Is(err, follow.ErrInsufficientReference) {
		l.session.Reset()
	}
	l.report(res, err)
}

func printRound(res follow.Result, err error) {
	if err != nil {
		fmt.Printf("no alignment: %v\n", err)
		return
	}
	fmt.Printf("at %.3fs (events %d-%d, distance %.2f)\n", res.PlayTime, res.BestStart, res.BestEnd, res.Distance)
}

func listen() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reference, err := loadReference(ctx, referencePath, referenceSheet, referencePage)
	cobra.CheckErr(err)
	session := follow.NewSession(reference, follow.Options{LookAhead: lookAhead})
	defer session.Close()

	defer gomidi.CloseDriver()
	in, err := gomidi.InPort(inPort)
	if err != nil {
		fmt.Printf("can't find MIDI input %d\n", inPort)
		return
	}

	l := newListener(session, roundSize, pause, printRound)
	stopListening, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		at := float64(timestampms) / 1000
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			l.noteOn(key, at)
		case msg.GetNoteEnd(&ch, &key):
			l.noteOff(key, at)
		default:
			// ignore
		}
	})
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return
	}
	defer stopListening()

	slog.Info("listening", "port", in.String(), "events", session.Len())
	<-ctx.Done()
}
