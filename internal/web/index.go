package web

// Single-pair dashboard: risk state, pause controls and the trade audit log.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>crossma</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --buy:#1b9aaa;
      --sell:#d7263d;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:flex-start;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    body::before {
      content:'';
      position:fixed;
      inset:0;
      background:
        linear-gradient(90deg, rgba(0,0,0,.02) 1px, transparent 1px),
        linear-gradient(rgba(0,0,0,.02) 1px, transparent 1px);
      background-size:12px 12px;
      pointer-events:none;
    }
    #app {
      width:min(1100px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      position:relative;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:flex;
      flex-direction:column;
      gap:1.5rem;
    }
    #app::after {
      content:'';
      position:absolute;
      inset:8px;
      border:1px dashed rgba(0,0,0,.15);
      pointer-events:none;
    }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    .eyebrow {
      font-family:'Press Start 2P','Space Mono',monospace;
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0;
    }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
      background:#ffffff;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .state-row { display:flex; flex-wrap:wrap; gap:.6rem; align-items:center; }
    .pill {
      font-size:.6rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      padding:.4rem .8rem;
      border:2px solid var(--ink);
      background:#fefefe;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .pill.paused { color:var(--sell); border-color:var(--sell); }
    .pill.active { color:var(--buy); border-color:var(--buy); }
    .controls { display:flex; gap:.6rem; flex-wrap:wrap; }
    button {
      font-family:inherit;
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.12em;
      padding:.6rem 1.1rem;
      border:2px solid var(--ink);
      background:#ffffff;
      cursor:pointer;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    button:active { transform:translate(2px,2px); box-shadow:2px 2px 0 rgba(0,0,0,.15); }
    button.danger { border-color:var(--sell); color:var(--sell); }
    table {
      width:100%;
      border-collapse:collapse;
      background:#ffffff;
      border:2px solid var(--ink);
      font-size:.68rem;
    }
    th, td {
      border-bottom:1px dashed var(--ink-soft);
      padding:.5rem .6rem;
      text-align:left;
      vertical-align:top;
    }
    th {
      font-size:.55rem;
      text-transform:uppercase;
      letter-spacing:.15em;
      background:var(--panel);
      border-bottom:2px solid var(--ink);
    }
    td.side-buy { color:var(--buy); font-weight:700; text-transform:uppercase; }
    td.side-sell { color:var(--sell); font-weight:700; text-transform:uppercase; }
    .empty-state {
      border:2px dashed var(--ink-soft);
      padding:2rem;
      text-align:center;
      font-size:.8rem;
      letter-spacing:.12em;
      text-transform:uppercase;
      color:var(--ink-mid);
    }
    @media (max-width:640px) {
      body { padding:1rem; }
      #app { padding:1.2rem; }
      header { flex-direction:column; align-items:flex-start; }
    }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <div>
        <p class="eyebrow">crossma dashboard</p>
      </div>
      <div id="sse-status" class="status">Connecting…</div>
    </header>
    <section class="state-row">
      <span id="symbol" class="pill">—</span>
      <span id="trading" class="pill">…</span>
      <span id="autoPause" class="pill">…</span>
      <span id="peak" class="pill">peak: —</span>
    </section>
    <section class="controls">
      <button id="btnStart">Start</button>
      <button id="btnStop">Stop</button>
      <button id="btnClearAuto" class="danger">Clear Auto-Pause</button>
    </section>
    <section>
      <table>
        <thead>
          <tr>
            <th>Time</th><th>Side</th><th>Qty</th><th>Status</th>
            <th>Fill Price</th><th>Confidence</th><th>Reason</th>
          </tr>
        </thead>
        <tbody id="tradeRows"></tbody>
      </table>
      <div id="emptyState" class="empty-state">Waiting for trades…</div>
    </section>
  </div>
<script>
const statusEl = document.getElementById('sse-status');
const tradeRows = document.getElementById('tradeRows');
const emptyState = document.getElementById('emptyState');

const formatTs = (ts) => {
  const date = new Date(ts);
  if(Number.isNaN(date.getTime())){ return ts; }
  return date.toLocaleString([], { hour12:false });
};

function renderState(state){
  document.getElementById('symbol').textContent = state.symbol || '—';
  const trading = document.getElementById('trading');
  trading.textContent = state.trading_allowed ? 'trading' : (state.user_paused ? 'stopped' : 'paused');
  trading.className = 'pill ' + (state.trading_allowed ? 'active' : 'paused');
  const auto = document.getElementById('autoPause');
  auto.textContent = state.auto_paused ? 'auto-pause: tripped' : 'auto-pause: clear';
  auto.className = 'pill ' + (state.auto_paused ? 'paused' : '');
  document.getElementById('peak').textContent = 'peak: ' + (state.peak_equity || '—');
}

async function fetchState(){
  try{
    const resp = await fetch('/api/state');
    if(resp.ok){ renderState(await resp.json()); }
  }catch(err){
    console.error('state fetch', err);
  }
}

async function post(path){
  try{
    const resp = await fetch(path, { method:'POST' });
    if(resp.ok){ renderState(await resp.json()); }
  }catch(err){
    console.error('control', err);
  }
}

document.getElementById('btnStart').addEventListener('click', () => post('/api/resume'));
document.getElementById('btnStop').addEventListener('click', () => post('/api/pause'));
document.getElementById('btnClearAuto').addEventListener('click', () => post('/api/autopause/clear'));

function appendTrade(trade){
  if(emptyState){ emptyState.style.display = 'none'; }
  const row = document.createElement('tr');
  const cells = [
    formatTs(trade.ts),
    trade.side,
    trade.qty,
    trade.status,
    trade.filled_avg_price || '—',
    Number(trade.confidence).toFixed(4),
    trade.reason
  ];
  cells.forEach((value, i) => {
    const td = document.createElement('td');
    td.textContent = value;
    if(i === 1){ td.className = 'side-' + trade.side; }
    row.appendChild(td);
  });
  tradeRows.insertBefore(row, tradeRows.firstChild);
}

function connectSSE(){
  const source = new EventSource('/trades/stream');
  statusEl.textContent = 'Status: receiving data';
  source.addEventListener('trade', (event) => {
    try{
      appendTrade(JSON.parse(event.data));
    }catch(err){
      console.error('payload parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

connectSSE();
fetchState();
setInterval(fetchState, 5000);
</script>
</body>
</html>`
