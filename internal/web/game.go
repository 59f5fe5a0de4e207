package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// GameView is the participant page. It rejoins through the session cookie,
// follows the room over the websocket and renders the reveal.
func GameView(data GameData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writePageStart(w, "Crystal Ball · "+data.Code)
		_, _ = io.WriteString(w, `      <header>
        <span class="tag">Game `+templ.EscapeString(data.Code)+`</span>
        <h1 id="question">`+templ.EscapeString(data.Question)+`</h1>
        <p id="status">Waiting for players...</p>
      </header>

      <section class="panel">
        <p>Share this game: <a id="shareLink" href="`+templ.EscapeString(data.ShareURL)+`">`+templ.EscapeString(data.ShareURL)+`</a></p>
        <img src="/api/games/`+templ.EscapeString(data.Code)+`/qr" alt="QR code for this game" width="160" height="160"/>
      </section>

      <section class="panel" id="joinPanel">
        <h2>Join</h2>
        <form id="joinForm">
          <input name="displayName" placeholder="Your name" maxlength="`+itoa(data.MaxNameLength)+`" required/>
          <button type="submit">Join game</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>

      <section class="panel hidden" id="predictPanel">
        <h2 id="welcome"></h2>
        <form id="predictForm">
          <textarea name="content" rows="4" maxlength="`+itoa(data.MaxPredictionLength)+`" placeholder="Your prediction" required></textarea>
          <button type="submit">Lock in prediction</button>
        </form>
        <div id="predictResult" class="result"></div>
      </section>

      <section class="panel hidden" id="revealPanel">
        <h2>Predictions</h2>
        <ul class="pairs" id="pairs"></ul>
      </section>

    <script>
      const code = `+jsString(data.Code)+`;
      const capacity = `+itoa(data.Capacity)+`;
      const statusEl = document.getElementById("status");
      const joinPanel = document.getElementById("joinPanel");
      const joinForm = document.getElementById("joinForm");
      const joinResult = document.getElementById("joinResult");
      const predictPanel = document.getElementById("predictPanel");
      const predictForm = document.getElementById("predictForm");
      const predictResult = document.getElementById("predictResult");
      const revealPanel = document.getElementById("revealPanel");
      const pairsEl = document.getElementById("pairs");
      const state = { participantId: "", participants: 0, submissions: 0, revealed: false, version: 0 };

      function renderStatus() {
        if (state.revealed) {
          statusEl.textContent = "All predictions revealed.";
          return;
        }
        statusEl.textContent = state.participants + "/" + capacity + " joined, " +
          state.submissions + "/" + state.participants + " predictions in.";
      }

      function renderPairs(pairs) {
        pairsEl.replaceChildren();
        for (const pair of pairs) {
          const item = document.createElement("li");
          item.style.borderLeftColor = pair.participant.colorTag;
          const name = document.createElement("strong");
          name.textContent = pair.participant.displayName;
          item.appendChild(name);
          item.appendChild(document.createElement("br"));
          item.appendChild(document.createTextNode(pair.submission.content));
          pairsEl.appendChild(item);
        }
        revealPanel.classList.remove("hidden");
        predictPanel.classList.add("hidden");
        joinPanel.classList.add("hidden");
      }

      function joined(data) {
        state.participantId = data.participantId;
        joinPanel.classList.add("hidden");
        if (state.revealed) {
          return;
        }
        predictPanel.classList.remove("hidden");
        document.getElementById("welcome").textContent = "Hi " + data.displayName + "!";
        if (data.hasSubmitted) {
          predictForm.classList.add("hidden");
          predictResult.textContent = "Your prediction is locked in.";
        }
      }

      async function join(displayName) {
        const res = await fetch("/api/games/" + code + "/join", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ displayName })
        });
        const data = await res.json();
        return { ok: res.ok, data };
      }

      joinForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        joinResult.textContent = "Joining...";
        const result = await join(joinForm.elements.displayName.value);
        if (!result.ok) {
          joinResult.textContent = result.data.error || "Failed to join.";
          return;
        }
        joinResult.textContent = "";
        joined(result.data);
      });

      predictForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        predictResult.textContent = "Submitting...";
        const res = await fetch("/api/games/" + code + "/predictions", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ participantId: state.participantId, content: predictForm.elements.content.value })
        });
        const data = await res.json();
        if (!res.ok) {
          predictResult.textContent = data.error || "Failed to submit.";
          return;
        }
        predictForm.classList.add("hidden");
        predictResult.textContent = "Your prediction is locked in.";
      });

      function connect() {
        const scheme = window.location.protocol === "https:" ? "wss://" : "ws://";
        const socket = new WebSocket(scheme + window.location.host + "/ws/games/" + code);
        socket.addEventListener("message", (event) => {
          const msg = JSON.parse(event.data);
          if (msg.version < state.version) {
            return;
          }
          state.version = msg.version;
          switch (msg.event) {
            case "game_state":
              state.participants = msg.data.participantCount;
              state.submissions = msg.data.submissionCount;
              state.revealed = msg.data.revealed;
              break;
            case "participant_update":
              state.participants = msg.data.count;
              break;
            case "submission_update":
              state.submissions = msg.data.count;
              state.participants = msg.data.total;
              break;
            case "revealed":
              state.revealed = true;
              renderPairs(msg.data.pairs);
              break;
          }
          renderStatus();
        });
        socket.addEventListener("close", () => setTimeout(connect, 2000));
      }

      join("").then((result) => {
        if (result.ok) {
          joined(result.data);
        }
      });
      connect();
    </script>
`)
		writePageEnd(w)
		return nil
	})
}
