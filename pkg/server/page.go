package server

const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Superhero</title>
<style>
  body { font-family: -apple-system, system-ui, sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
  #portrait { width: 150px; height: 150px; border-radius: 75px; object-fit: cover; background: #e5e5ea; display: block; margin: 0 auto; }
  #name { text-align: center; white-space: pre-line; font-size: 1.4rem; margin: 1rem 0; }
  .stacks { display: flex; gap: 2rem; }
  .stack { display: flex; flex-direction: column; gap: 8px; font-size: 14px; flex: 1; }
  #roll { display: block; margin: 1.5rem auto; font-size: 1rem; padding: .5rem 1.5rem; }
  #blurb { font-style: italic; }
</style>
</head>
<body>
<img id="portrait" alt="">
<div id="name"></div>
<div class="stacks">
  <div class="stack" id="stats"></div>
  <div class="stack" id="bio"></div>
</div>
<button id="roll">Roll</button>
<p id="blurb"></p>
<script>
let shown = "";
function lines(el, items) {
  el.replaceChildren(...items.map(l => {
    const d = document.createElement("div");
    d.textContent = l.label + ": " + l.value;
    return d;
  }));
}
async function refresh() {
  const r = await fetch("/api/screen");
  if (!r.ok) return;
  const s = await r.json();
  document.getElementById("name").textContent = s.name;
  lines(document.getElementById("stats"), s.stats);
  lines(document.getElementById("bio"), s.bio);
  document.getElementById("roll").disabled = s.pending > 0;
  const img = document.getElementById("portrait");
  const key = s.portrait ? s.seq + ":" + s.portrait.placeholder : "";
  if (key !== shown) {
    shown = key;
    if (s.portrait) { img.src = "/api/portrait?k=" + encodeURIComponent(key); } else { img.removeAttribute("src"); }
    document.getElementById("blurb").textContent = "";
    if (s.state === "displayed" && s.portrait && !s.portrait.placeholder) {
      fetch("/api/blurb").then(b => b.ok ? b.json() : null).then(b => {
        if (b) document.getElementById("blurb").textContent = b.blurb;
      });
    }
  }
}
document.getElementById("roll").addEventListener("click", async () => {
  await fetch("/api/roll", { method: "POST" });
  refresh();
});
refresh();
setInterval(refresh, 500);
</script>
</body>
</html>
`
