package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home(data HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writePageStart(w, "Crystal Ball")
		_, _ = io.WriteString(w, `      <header>
        <span class="tag">Crystal Ball</span>
        <h1>Ask a question. Reveal every prediction at once.</h1>
        <p>Everyone answers in secret; nobody sees a prediction until all are in.</p>
      </header>

      <section class="panel">
        <h2>Create a game</h2>
        <form id="createForm">
          <label>Question
            <textarea name="question" rows="3" maxlength="`+itoa(data.MaxQuestionLength)+`" required></textarea>
          </label>
          <label>Players (`+itoa(data.MinCapacity)+`–`+itoa(data.MaxCapacity)+`)
            <input name="capacity" type="number" min="`+itoa(data.MinCapacity)+`" max="`+itoa(data.MaxCapacity)+`" value="`+itoa(data.DefaultCapacity)+`"/>
          </label>
          <button type="submit">Create game</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Join a game</h2>
        <form id="joinForm">
          <input name="code" placeholder="Game code" autocomplete="off" maxlength="6" required/>
          <button type="submit">Open game</button>
        </form>
      </section>

    <script>
      const createForm = document.getElementById("createForm");
      const createResult = document.getElementById("createResult");
      const joinForm = document.getElementById("joinForm");

      createForm.addEventListener("submit", async (event) => {
        event.preventDefault();
        createResult.textContent = "Creating game...";
        const question = createForm.elements.question.value;
        const capacity = parseInt(createForm.elements.capacity.value, 10) || 0;
        const res = await fetch("/api/games", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({ question, capacity })
        });
        const data = await res.json();
        if (!res.ok) {
          createResult.textContent = data.error || "Failed to create game.";
          return;
        }
        window.location.href = "/game/" + encodeURIComponent(data.code);
      });

      joinForm.addEventListener("submit", (event) => {
        event.preventDefault();
        const code = joinForm.elements.code.value.trim().toUpperCase();
        if (code) {
          window.location.href = "/game/" + encodeURIComponent(code);
        }
      });
    </script>
`)
		writePageEnd(w)
		return nil
	})
}

func NotFound(code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writePageStart(w, "Game not found")
		_, _ = io.WriteString(w, `      <section class="panel">
        <h1>Game not found</h1>
        <p>No game is running under the code <strong>`+templ.EscapeString(code)+`</strong>.</p>
        <p><a href="/">Start a new one</a></p>
      </section>
`)
		writePageEnd(w)
		return nil
	})
}
