package playback

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/19radio/internal/domain/player"
	"github.com/osa030/19radio/internal/domain/station"
)

// Fold errors. None of them is fatal; the update is dropped.
var (
	ErrStaleUpdate       = errors.New("update is for a station that is no longer current")
	ErrStationUnresolved = errors.New("current station cannot be resolved")
	ErrInactiveBackend   = errors.New("update from a backend that is not engaged")
)

// foldURLStatus maps a URL backend status onto the unified state.
func foldURLStatus(cur State, ev player.URLStatus) (State, error) {
	if err := checkStale(cur.Status, urlStation(ev.Station)); err != nil {
		return cur, err
	}

	switch ev.Kind {
	case player.URLLoading:
		st, ok := cur.Status.CurrentStation()
		if !ok {
			return cur, ErrStationUnresolved
		}
		next := cur
		next.Status = Loading(st, nil)
		return next, nil

	case player.URLReadyToPlay, player.URLLoadingFinished:
		st, ok := cur.Status.CurrentStation()
		if !ok {
			return cur, ErrStationUnresolved
		}
		// Artwork arrives on its own channel and is left as is.
		next := cur
		next.Status = Playing(st)
		next.Artist = ev.Artist
		next.Title = ev.Title
		next.ProgramUnit = nil
		return next, nil

	case player.URLError:
		return withStatusOnly(Errored()), nil

	default:
		return withStatusOnly(Stopped()), nil
	}
}

// foldStationStatus maps a managed station backend status onto the unified state.
func foldStationStatus(cur State, ev player.StationStatus) (State, error) {
	if err := checkStale(cur.Status, playolaStation(ev.Station)); err != nil {
		return cur, err
	}

	switch ev.Kind {
	case player.StationIdle:
		return withStatusOnly(Stopped()), nil

	case player.StationLoading:
		st, ok := cur.Status.CurrentStation()
		if !ok {
			return cur, ErrStationUnresolved
		}
		next := cur
		next.Status = Loading(st, ev.Progress)
		return next, nil

	case player.StationPlaying:
		st, ok := cur.Status.CurrentStation()
		if !ok {
			return cur, ErrStationUnresolved
		}
		np := ev.NowPlaying
		return State{
			Status:      Playing(st),
			Artist:      np.Artist,
			Title:       np.Title,
			ArtworkURL:  np.ArtworkURL,
			ProgramUnit: np.ProgramUnit,
		}, nil

	default:
		return withStatusOnly(Errored()), nil
	}
}

// foldArtwork applies an artwork update without touching the status.
func foldArtwork(cur State, ev player.ArtworkUpdate) (State, error) {
	if err := checkStale(cur.Status, urlStation(ev.Station)); err != nil {
		return cur, err
	}
	if clearsMetadata(cur.Status) {
		return cur, ErrStationUnresolved
	}
	next := cur
	next.ArtworkURL = ev.URL
	return next, nil
}

// checkStale rejects updates that name a station other than the current one.
func checkStale(cur Status, reported station.Station) error {
	if reported == nil {
		return nil
	}
	st, ok := cur.CurrentStation()
	if !ok {
		return nil
	}
	if !station.Same(st, reported) {
		return errors.Wrapf(ErrStaleUpdate, "reported=%s current=%s", station.ID(reported), station.ID(st))
	}
	return nil
}

func urlStation(s *station.URLStation) station.Station {
	if s == nil {
		return nil
	}
	return *s
}

func playolaStation(s *station.PlayolaStation) station.Station {
	if s == nil {
		return nil
	}
	return *s
}
