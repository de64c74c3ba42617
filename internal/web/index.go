package web

// indexHTML is the single-page preview UI. It renders the tile grid from
// /api/tiles, toggles tiles through /api/toggle, and reloads the mosaic
// image after every change.
const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>gridstitch preview</title>
<style>
  body { font-family: ui-monospace, monospace; background: #111; color: #ddd; margin: 2rem; }
  h1 { font-size: 1.1rem; color: #4dd; }
  #grid { display: inline-grid; gap: 4px; margin-bottom: 1rem; }
  .cell { width: 28px; height: 28px; border: 1px solid #333; cursor: pointer; text-align: center; line-height: 28px; }
  .present { background: #2a4; }
  .excluded { background: #a33; }
  .absent { background: #222; cursor: default; }
  #mosaic { max-width: 90vw; border: 1px solid #333; }
  #status { color: #999; margin: 0.5rem 0; min-height: 1.2em; }
</style>
</head>
<body>
<h1>gridstitch preview</h1>
<div id="grid"></div>
<div id="status"></div>
<img id="mosaic" src="/mosaic.png">
<script>
async function loadGrid() {
  const resp = await fetch('/api/tiles');
  const data = await resp.json();
  const grid = document.getElementById('grid');
  grid.innerHTML = '';
  grid.style.gridTemplateColumns = 'repeat(' + (data.max_col - data.min_col + 1) + ', 28px)';
  const states = {};
  for (const t of data.tiles) states[t.row + ',' + t.col] = t;
  for (let r = data.min_row; r <= data.max_row; r++) {
    for (let c = data.min_col; c <= data.max_col; c++) {
      const cell = document.createElement('div');
      const t = states[r + ',' + c];
      cell.className = 'cell ' + (!t ? 'absent' : t.excluded ? 'excluded' : 'present');
      cell.title = '(' + r + ',' + c + ')';
      if (t) cell.onclick = () => toggle(r, c);
      grid.appendChild(cell);
    }
  }
}
async function toggle(row, col) {
  const status = document.getElementById('status');
  const resp = await fetch('/api/toggle/' + row + '/' + col, {method: 'POST'});
  const data = await resp.json();
  if (!resp.ok) { status.textContent = data.error; return; }
  status.textContent = '(' + row + ',' + col + ') ' + (data.excluded ? 'excluded' : 'restored');
  await loadGrid();
  document.getElementById('mosaic').src = '/mosaic.png?t=' + Date.now();
}
loadGrid();
</script>
</body>
</html>
`
