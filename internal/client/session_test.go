package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/sillychess/internal/protocol"
)

const (
	startFEN    = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4FEN  = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	afterC5FEN  = "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"
	promoteFEN  = "8/P6k/8/8/8/8/8/K7 w - - 0 1"
	afterE5FEN  = "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"
	afterNf3FEN = "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
)

type recordingDisplay struct {
	mu     sync.Mutex
	views  []BoardView
	alerts []string
}

func (d *recordingDisplay) Render(v BoardView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, v)
}

func (d *recordingDisplay) Alert(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, msg)
}

func (d *recordingDisplay) last() BoardView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.views[len(d.views)-1]
}

func (d *recordingDisplay) alertCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.alerts)
}

func (d *recordingDisplay) lastAlert() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.alerts) == 0 {
		return ""
	}
	return d.alerts[len(d.alerts)-1]
}

// fakeServer answers each endpoint with a scripted handler and records the
// moves it received.
type fakeServer struct {
	*httptest.Server
	mu       sync.Mutex
	newGame  func(w http.ResponseWriter, color string)
	makeMove func(w http.ResponseWriter, move string)
	moves    []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.PathNewGame, func(w http.ResponseWriter, r *http.Request) {
		var req protocol.NewGameRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fs.newGame(w, req.Color)
	})
	mux.HandleFunc(protocol.PathMakeMove, func(w http.ResponseWriter, r *http.Request) {
		var req protocol.MakeMoveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fs.mu.Lock()
		fs.moves = append(fs.moves, req.Move)
		fs.mu.Unlock()
		fs.makeMove(w, req.Move)
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) received() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.moves...)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func startsWith(fen, color string, engine *protocol.EngineMove) func(http.ResponseWriter, string) {
	return func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{FEN: fen, PlayerColor: color, EngineMove: engine})
	}
}

func newTestSession(t *testing.T, fs *fakeServer, chooser PromotionChooser) (*Session, *recordingDisplay) {
	t.Helper()
	api, err := NewAPIClient(fs.URL, 2*time.Second)
	require.NoError(t, err)
	d := &recordingDisplay{}
	return NewSession(api, d, chooser), d
}

func TestStartGame_BlackWithEngineOpening(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(afterE4FEN, "black", &protocol.EngineMove{Move: "e4", From: "e2", To: "e4"})
	s, d := newTestSession(t, fs, nil)

	require.NoError(t, s.StartGame(context.Background(), "black"))

	assert.Equal(t, []string{"1. e4"}, s.History())
	assert.Equal(t, afterE4FEN, s.FEN())
	assert.Equal(t, SessionConfig{PlayerColor: chess.Black, Active: true}, s.Config())
	assert.Equal(t, chess.Black, s.Position().Turn())
	assert.Contains(t, s.Destinations()["e7"], "e5")

	v := d.last()
	assert.True(t, v.Movable)
	assert.Equal(t, chess.Black, v.Orientation)
	assert.Equal(t, []string{"e2", "e4"}, v.LastMove)
	assert.Equal(t, 0, d.alertCount())
}

func TestStartGame_ResetsHistory(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(startFEN, "white", nil)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{FEN: afterC5FEN, EngineMove: &protocol.EngineMove{Move: "c5", From: "c7", To: "c5"}})
	}
	s, _ := newTestSession(t, fs, nil)
	ctx := context.Background()

	require.NoError(t, s.StartGame(ctx, "white"))
	require.NoError(t, s.SubmitMove(ctx, Candidate{From: "e2", To: "e4"}))
	assert.Equal(t, []string{"1. e4 c5"}, s.History())

	fs.newGame = startsWith(afterE4FEN, "black", &protocol.EngineMove{Move: "e4", From: "e2", To: "e4"})
	require.NoError(t, s.StartGame(ctx, "black"))
	assert.Equal(t, []string{"1. e4"}, s.History())
	assert.Len(t, s.Moves(), 1)
}

func TestStartGame_ErrorLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name    string
		handler func(http.ResponseWriter, string)
	}{
		{"error field", func(w http.ResponseWriter, _ string) {
			reply(w, http.StatusOK, protocol.GameResponse{Error: "engine unavailable"})
		}},
		{"non-2xx", func(w http.ResponseWriter, _ string) {
			reply(w, http.StatusInternalServerError, protocol.ErrorResponse{Error: "engine unavailable", Code: "INTERNAL_ERROR"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.newGame = tt.handler
			s, d := newTestSession(t, fs, nil)

			err := s.StartGame(context.Background(), "white")
			var se *ServerError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "engine unavailable", se.Message)
			assert.Equal(t, "Error: engine unavailable", d.lastAlert())
			assert.False(t, s.Config().Active)
			assert.Equal(t, chess.NewGame().FEN(), s.FEN())
		})
	}
}

func TestStartGame_ImmediateGameOver(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{
			FEN:         "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			PlayerColor: "black",
			GameOver:    true,
			Result:      "1/2-1/2 (Stalemate)",
		})
	}
	s, d := newTestSession(t, fs, nil)

	require.NoError(t, s.StartGame(context.Background(), "black"))
	assert.False(t, s.Config().Active)
	assert.Equal(t, []string{"Game Over! 1/2-1/2 (Stalemate)"}, s.History())
	assert.Equal(t, "1/2-1/2 (Stalemate)", s.Result())
	assert.Equal(t, "Game Over! 1/2-1/2 (Stalemate)", d.lastAlert())
	assert.False(t, d.last().Movable)

	err := s.SubmitMove(context.Background(), Candidate{From: "h8", To: "g8"})
	assert.ErrorIs(t, err, ErrGameInactive)
	assert.Empty(t, s.Destinations())
}

func TestSession_NilDisplay(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{
			FEN:         "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			PlayerColor: "black",
			GameOver:    true,
			Result:      "1/2-1/2 (Stalemate)",
		})
	}
	api, err := NewAPIClient(fs.URL, 2*time.Second)
	require.NoError(t, err)
	s := NewSession(api, nil, nil)

	require.NotPanics(t, func() {
		require.NoError(t, s.StartGame(context.Background(), "black"))
	})
	assert.Equal(t, "1/2-1/2 (Stalemate)", s.Result())

	fs.newGame = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusInternalServerError, protocol.ErrorResponse{Error: "boom", Code: "INTERNAL_ERROR"})
	}
	require.NotPanics(t, func() {
		var se *ServerError
		assert.ErrorAs(t, s.StartGame(context.Background(), "white"), &se)
	})
}

func TestSubmitMove_RequiresGame(t *testing.T) {
	s := NewSession(nil, &recordingDisplay{}, nil)
	assert.ErrorIs(t, s.SubmitMove(context.Background(), Candidate{From: "e2", To: "e4"}), ErrGameInactive)
}

func TestSubmitMove_NotYourTurn(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(afterE4FEN, "white", nil)
	s, _ := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	err := s.SubmitMove(context.Background(), Candidate{From: "d2", To: "d4"})
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.Empty(t, fs.received())
}

func TestSubmitMove_IllegalMoveRejectedLocally(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(startFEN, "white", nil)
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))
	renders := len(d.views)

	for _, c := range []Candidate{{From: "e2", To: "e5"}, {From: "e7", To: "e5"}, {From: "zz", To: "e4"}} {
		err := s.SubmitMove(context.Background(), c)
		assert.ErrorIs(t, err, ErrIllegalMove)
	}
	assert.Empty(t, fs.received())
	assert.Equal(t, startFEN, s.FEN())
	assert.Greater(t, len(d.views), renders)
	assert.True(t, d.last().Movable)
	assert.Equal(t, 0, d.alertCount())
}

func TestSubmitMove_ServerRejectionRollsBack(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(afterE4FEN, "black", &protocol.EngineMove{Move: "e4", From: "e2", To: "e4"})
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusBadRequest, protocol.ErrorResponse{Error: "illegal move"})
	}
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "black"))

	err := s.SubmitMove(context.Background(), Candidate{From: "e7", To: "e5"})
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)

	assert.Equal(t, []string{"e5"}, fs.received())
	assert.Equal(t, afterE4FEN, s.FEN())
	assert.Equal(t, []string{"1. e4"}, s.History())
	assert.Equal(t, "Error: illegal move", d.lastAlert())
	assert.Equal(t, []string{"e2", "e4"}, d.last().LastMove)
	assert.True(t, s.Config().Active)
	assert.True(t, d.last().Movable)
}

func TestSubmitMove_ErrorFieldOn200RollsBack(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(startFEN, "white", nil)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{Error: "Invalid move"})
	}
	s, _ := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	err := s.SubmitMove(context.Background(), Candidate{From: "e2", To: "e4"})
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, startFEN, s.FEN())
	assert.Empty(t, s.History())
}

func TestSubmitMove_TransportFailureRollsBack(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(startFEN, "white", nil)
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))
	fs.Close()

	err := s.SubmitMove(context.Background(), Candidate{From: "e2", To: "e4"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, startFEN, s.FEN())
	assert.Empty(t, s.History())
	assert.Contains(t, d.lastAlert(), "Network error")
}

func TestSubmitMove_AuthoritativeStateWins(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(afterE4FEN, "black", &protocol.EngineMove{Move: "e4", From: "e2", To: "e4"})
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{
			FEN:        afterNf3FEN,
			EngineMove: &protocol.EngineMove{Move: "Nf3", From: "g1", To: "f3"},
		})
	}
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "black"))

	require.NoError(t, s.SubmitMove(context.Background(), Candidate{From: "e7", To: "e5"}))
	assert.Equal(t, afterNf3FEN, s.FEN())
	assert.NotEqual(t, afterE5FEN, s.FEN())
	assert.Equal(t, []string{"1. e4 e5", "2. Nf3"}, s.History())
	assert.Equal(t, []string{"g1", "f3"}, d.last().LastMove)
	assert.True(t, d.last().Movable)

	moves := s.Moves()
	require.Len(t, moves, 3)
	assert.Equal(t, MoveRecord{Color: chess.Black, From: "e7", To: "e5", SAN: "e5"}, moves[1])
}

func TestSubmitMove_GameOverResponse(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith("r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4", "white", nil)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{
			FEN:      "r1bqkbnr/pppp1Qpp/2n5/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4",
			GameOver: true,
			Result:   "1-0 (White wins by checkmate)",
		})
	}
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	require.NoError(t, s.SubmitMove(context.Background(), Candidate{From: "h5", To: "f7"}))
	assert.Equal(t, []string{"Qxf7#"}, fs.received())
	assert.Equal(t, []string{"1. Qxf7#", "Game Over! 1-0 (White wins by checkmate)"}, s.History())
	assert.False(t, s.Config().Active)
	assert.False(t, d.last().Movable)
	assert.Equal(t, "Game Over! 1-0 (White wins by checkmate)", d.lastAlert())
}

func TestSubmitMove_PromotionAsksChooser(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(promoteFEN, "white", nil)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{FEN: "R7/7k/8/8/8/8/8/K7 b - - 0 1"})
	}
	var asked []string
	chooser := PromotionChooserFunc(func(_ context.Context, from, to string) (chess.PieceType, error) {
		asked = append(asked, from+to)
		return chess.Rook, nil
	})
	s, _ := newTestSession(t, fs, chooser)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	require.NoError(t, s.SubmitMove(context.Background(), Candidate{From: "a7", To: "a8"}))
	assert.Equal(t, []string{"a7a8"}, asked)
	assert.Equal(t, []string{"a8=R"}, fs.received())
	assert.Equal(t, chess.Rook, s.Moves()[0].Promotion)
}

func TestSubmitMove_PromotionPieceGiven(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(promoteFEN, "white", nil)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusOK, protocol.GameResponse{FEN: "N7/7k/8/8/8/8/8/K7 b - - 0 1"})
	}
	chooser := PromotionChooserFunc(func(context.Context, string, string) (chess.PieceType, error) {
		t.Fatal("chooser must not be asked when the piece is given")
		return chess.NoPieceType, nil
	})
	s, _ := newTestSession(t, fs, chooser)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	require.NoError(t, s.SubmitMove(context.Background(), Candidate{From: "a7", To: "a8", Promotion: chess.Knight}))
	assert.Equal(t, []string{"a8=N"}, fs.received())
}

func TestSubmitMove_PromotionNeverSentUnresolved(t *testing.T) {
	tests := []struct {
		name    string
		chooser PromotionChooser
	}{
		{"no chooser", nil},
		{"cancelled", PromotionChooserFunc(func(context.Context, string, string) (chess.PieceType, error) {
			return chess.NoPieceType, stderrors.New("closed")
		})},
		{"king is not a promotion piece", PromotionChooserFunc(func(context.Context, string, string) (chess.PieceType, error) {
			return chess.King, nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.newGame = startsWith(promoteFEN, "white", nil)
			s, d := newTestSession(t, fs, tt.chooser)
			require.NoError(t, s.StartGame(context.Background(), "white"))

			err := s.SubmitMove(context.Background(), Candidate{From: "a7", To: "a8"})
			assert.ErrorIs(t, err, ErrPromotionCancelled)
			assert.Empty(t, fs.received())
			assert.Equal(t, promoteFEN, s.FEN())
			assert.True(t, d.last().Movable)

			// the session accepts moves again
			assert.NotEmpty(t, s.Destinations())
		})
	}
}

func TestSubmitMove_OneInFlight(t *testing.T) {
	fs := newFakeServer(t)
	fs.newGame = startsWith(startFEN, "white", nil)
	arrived := make(chan struct{})
	release := make(chan struct{})
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		close(arrived)
		<-release
		reply(w, http.StatusOK, protocol.GameResponse{FEN: afterC5FEN, EngineMove: &protocol.EngineMove{Move: "c5", From: "c7", To: "c5"}})
	}
	s, d := newTestSession(t, fs, nil)
	require.NoError(t, s.StartGame(context.Background(), "white"))

	done := make(chan error, 1)
	go func() { done <- s.SubmitMove(context.Background(), Candidate{From: "e2", To: "e4"}) }()
	<-arrived

	assert.False(t, d.last().Movable)
	assert.Equal(t, chess.WhitePawn, s.Position().Board().Piece(chess.E4))
	assert.ErrorIs(t, s.SubmitMove(context.Background(), Candidate{From: "d2", To: "d4"}), ErrMoveInFlight)
	assert.ErrorIs(t, s.StartGame(context.Background(), "white"), ErrMoveInFlight)
	assert.Empty(t, s.Destinations())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, afterC5FEN, s.FEN())
	assert.Equal(t, []string{"e4"}, fs.received())
}

func TestAPIClient_ServerErrorCarriesCode(t *testing.T) {
	fs := newFakeServer(t)
	fs.makeMove = func(w http.ResponseWriter, _ string) {
		reply(w, http.StatusBadRequest, protocol.ErrorResponse{Error: "No active game", Code: "NO_ACTIVE_GAME"})
	}
	api, err := NewAPIClient(fs.URL+"/", time.Second)
	require.NoError(t, err)

	_, err = api.MakeMove(context.Background(), "e4")
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "NO_ACTIVE_GAME", se.Code)
	assert.Equal(t, "server error 400 (NO_ACTIVE_GAME): No active game", se.Error())
}

func TestAPIClient_PlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()
	api, err := NewAPIClient(ts.URL, time.Second)
	require.NoError(t, err)

	_, err = api.NewGame(context.Background(), "white")
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad gateway", se.Message)

	_, err = api.PGN(context.Background())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
}
